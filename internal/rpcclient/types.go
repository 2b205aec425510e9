package rpcclient

import "github.com/ethereum/go-ethereum/common"

// AccountState is one touched account's fields as reported by the
// prestate tracer, in either mode. Fields are pointers/maps so presence
// (not value) can be distinguished from a zero value.
type AccountState struct {
	Balance *string           `json:"balance,omitempty"`
	Nonce   *uint64           `json:"nonce,omitempty"`
	Code    *string           `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

// PrestateFrame is the default-mode prestate tracer result: pre-execution
// account state for every account the transaction touched. This is a
// transaction's read set.
type PrestateFrame map[common.Address]AccountState

// PrestateDiffFrame is the diff-mode prestate tracer result. Only Post is
// used by this system — it is a transaction's write set.
type PrestateDiffFrame struct {
	Pre  PrestateFrame `json:"pre"`
	Post PrestateFrame `json:"post"`
}

// traceConfig is the JSON body sent as the third debug_traceTransaction
// parameter.
type traceConfig struct {
	Tracer       string             `json:"tracer"`
	TracerConfig prestateTracerOpts `json:"tracerConfig"`
}

type prestateTracerOpts struct {
	DiffMode bool `json:"diffMode"`
}
