// Package model holds the persisted and transient types shared by the
// store, pipeline, and HTTP layers.
package model

// Block is a persisted canonical block header.
type Block struct {
	ParentHash     string
	BlockHash      string
	BlockNumber    uint64
	GasUsed        uint64
	GasLimit       uint64
	Timestamp      uint64
	BaseFeePerGas  string
	BlobGasUsed    uint64
	ExcessBlobGas  uint64
}

// Transaction is a persisted record of one transaction in a block.
// 256-bit numeric fields are kept as decimal strings to avoid precision
// loss; hashes and addresses are kept as 0x-prefixed hex strings.
type Transaction struct {
	BlockNumber          uint64
	Index                uint64
	Hash                 string
	From                 string
	To                   string
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	MaxFeePerBlobGas     string
	GasLimit             uint64
	Value                string
	Input                string
	Nonce                uint64
	Type                 uint8
}

// DepType is a bitmask over the dependency axes an edge was observed on.
type DepType uint16

const (
	DepBalance DepType = 0x1
	DepCode    DepType = 0x10
	DepStorage DepType = 0x100
)

// DependencyEdge is a labeled directed edge: Source depends on Target.
// Source always has the larger index (it runs later in the block).
type DependencyEdge struct {
	BlockNumber uint64
	Source      uint64
	Target      uint64
	DepType     DepType
}

// AnalyzerCursor is the durable per-chain progress marker.
type AnalyzerCursor struct {
	ChainID             int64
	LatestBlock         uint64
	StartBlock          int64
	LatestAnalyzedBlock int64
}

// StateSet is the compact set representation of everything one
// transaction touched along the three dependency axes. Only presence is
// retained, never values.
type StateSet struct {
	BalanceSet map[string]struct{}
	CodeSet    map[string]struct{}
	StorageSet map[string]struct{}
}

// NewStateSet returns an empty, ready-to-use StateSet.
func NewStateSet() StateSet {
	return StateSet{
		BalanceSet: make(map[string]struct{}),
		CodeSet:    make(map[string]struct{}),
		StorageSet: make(map[string]struct{}),
	}
}

// TransactionStateSet pairs one transaction's pre-execution read set with
// its post-execution write set.
type TransactionStateSet struct {
	Read  StateSet
	Write StateSet
}
