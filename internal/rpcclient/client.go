// Package rpcclient is a thin typed wrapper over the three
// execution-layer JSON-RPC methods the analyzer needs: the chain tip,
// a full block by number, and the two prestate-tracer trace variants.
package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/example/pevm-analyzer/internal/model"
)

// Error wraps any failure from the three RPC operations below: HTTP
// failures, JSON decode failures, and an absent expected frame variant
// all surface as this single kind.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("rpc: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Client is an immutable, cheaply shareable handle around go-ethereum's
// ethclient (for block/tip reads) and its raw rpc.Client (for the debug
// namespace, which ethclient does not expose).
type Client struct {
	eth     *ethclient.Client
	raw     *rpc.Client
	chainID *big.Int
	signer  types.Signer
}

// Dial connects to the execution-layer JSON-RPC endpoint at url.
func Dial(ctx context.Context, url string, chainID int64) (*Client, error) {
	raw, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, &Error{Op: "dial", Err: err}
	}

	id := big.NewInt(chainID)
	return &Client{
		eth:     ethclient.NewClient(raw),
		raw:     raw,
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.raw.Close()
}

// LatestBlockNumber returns the chain tip.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, &Error{Op: "eth_blockNumber", Err: err}
	}
	return n, nil
}

// BlockByNumber fetches block n with full transaction bodies and returns
// it already converted into the persisted model shapes.
func (c *Client) BlockByNumber(ctx context.Context, n uint64) (model.Block, []model.Transaction, error) {
	blk, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(n))
	if err != nil {
		return model.Block{}, nil, &Error{Op: "eth_getBlockByNumber", Err: err}
	}
	if blk == nil {
		return model.Block{}, nil, &Error{Op: "eth_getBlockByNumber", Err: fmt.Errorf("block %d not found", n)}
	}

	header := blk.Header()
	b := model.Block{
		ParentHash:    header.ParentHash.Hex(),
		BlockHash:     blk.Hash().Hex(),
		BlockNumber:   blk.NumberU64(),
		GasUsed:       header.GasUsed,
		GasLimit:      header.GasLimit,
		Timestamp:     header.Time,
		BaseFeePerGas: bigToDecimal(header.BaseFee),
		BlobGasUsed:   uint64Val(header.BlobGasUsed),
		ExcessBlobGas: uint64Val(header.ExcessBlobGas),
	}

	txs := make([]model.Transaction, 0, len(blk.Transactions()))
	for idx, tx := range blk.Transactions() {
		from, err := types.Sender(c.signer, tx)
		if err != nil {
			return model.Block{}, nil, &Error{Op: "recover sender", Err: err}
		}

		to := ""
		if tx.To() != nil {
			to = tx.To().Hex()
		}

		txs = append(txs, model.Transaction{
			BlockNumber:          b.BlockNumber,
			Index:                uint64(idx),
			Hash:                 tx.Hash().Hex(),
			From:                 from.Hex(),
			To:                   to,
			GasPrice:             bigToDecimal(tx.GasPrice()),
			MaxFeePerGas:         bigToDecimal(tx.GasFeeCap()),
			MaxPriorityFeePerGas: bigToDecimal(tx.GasTipCap()),
			MaxFeePerBlobGas:     bigToDecimal(tx.BlobGasFeeCap()),
			GasLimit:             tx.Gas(),
			Value:                bigToDecimal(tx.Value()),
			Input:                hexutil.Encode(tx.Data()),
			Nonce:                tx.Nonce(),
			Type:                 tx.Type(),
		})
	}

	return b, txs, nil
}

// TracePrestateRead runs the default-mode prestate tracer, returning the
// transaction's pre-execution read set.
func (c *Client) TracePrestateRead(ctx context.Context, txHash common.Hash) (PrestateFrame, error) {
	var raw json.RawMessage
	cfg := traceConfig{Tracer: "prestateTracer", TracerConfig: prestateTracerOpts{DiffMode: false}}
	if err := c.raw.CallContext(ctx, &raw, "debug_traceTransaction", txHash, cfg); err != nil {
		return nil, &Error{Op: "debug_traceTransaction(default)", Err: err}
	}
	if raw == nil {
		return nil, &Error{Op: "debug_traceTransaction(default)", Err: fmt.Errorf("empty trace for %s", txHash)}
	}

	var frame PrestateFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, &Error{Op: "decode prestate frame", Err: err}
	}
	return frame, nil
}

// TracePrestateWrite runs the diff-mode prestate tracer, returning the
// transaction's post-execution write set (the diff frame's Post map).
func (c *Client) TracePrestateWrite(ctx context.Context, txHash common.Hash) (PrestateFrame, error) {
	var raw json.RawMessage
	cfg := traceConfig{Tracer: "prestateTracer", TracerConfig: prestateTracerOpts{DiffMode: true}}
	if err := c.raw.CallContext(ctx, &raw, "debug_traceTransaction", txHash, cfg); err != nil {
		return nil, &Error{Op: "debug_traceTransaction(diff)", Err: err}
	}
	if raw == nil {
		return nil, &Error{Op: "debug_traceTransaction(diff)", Err: fmt.Errorf("empty trace for %s", txHash)}
	}

	var diff PrestateDiffFrame
	if err := json.Unmarshal(raw, &diff); err != nil {
		return nil, &Error{Op: "decode prestate diff frame", Err: err}
	}
	if diff.Post == nil {
		return nil, &Error{Op: "decode prestate diff frame", Err: fmt.Errorf("missing post frame for %s", txHash)}
	}
	return diff.Post, nil
}

func bigToDecimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func uint64Val(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
