// Package pipeline implements the per-block unit of work: fetch a block
// and its transactions, trace each transaction twice, run the
// dependency analyzer, and commit the result alongside the chain's
// cursor.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/example/pevm-analyzer/internal/analyzer"
	"github.com/example/pevm-analyzer/internal/model"
	"github.com/example/pevm-analyzer/internal/rpcclient"
	"github.com/example/pevm-analyzer/internal/stateset"
	"github.com/example/pevm-analyzer/internal/store"
)

// RPC is the subset of rpcclient.Client the pipeline depends on. Defined
// as an interface here so tests can substitute a fake without dialing a
// real node.
type RPC interface {
	BlockByNumber(ctx context.Context, n uint64) (model.Block, []model.Transaction, error)
	TracePrestateRead(ctx context.Context, txHash common.Hash) (rpcclient.PrestateFrame, error)
	TracePrestateWrite(ctx context.Context, txHash common.Hash) (rpcclient.PrestateFrame, error)
}

// Pipeline runs one block at a time against a shared store and RPC
// handle. Both handles are safe for concurrent use, so a Pipeline value
// may be shared between a supervisor goroutine and anything else that
// wants to re-run a block (e.g. an operator-triggered backfill).
type Pipeline struct {
	Store            store.Store
	RPC              RPC
	Logger           zerolog.Logger
	ChainID          int64
	TraceConcurrency int
}

type tracedTx struct {
	index uint64
	set   model.TransactionStateSet
	err   error
}

// Run executes the eight-step block pipeline described in the design
// for block number n against observed chain tip tip. On success the
// chain's cursor is advanced to (n, tip).
func (p *Pipeline) Run(ctx context.Context, n uint64, tip uint64) error {
	block, txs, err := p.RPC.BlockByNumber(ctx, n)
	if err != nil {
		return fmt.Errorf("fetch block %d: %w", n, err)
	}

	if err := p.Store.InsertBlock(ctx, block); err != nil {
		return fmt.Errorf("insert block %d: %w", n, err)
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].Index < txs[j].Index })
	for i, tx := range txs {
		if tx.Index != uint64(i) {
			return fmt.Errorf("block %d: transaction indices are not dense starting at 0", n)
		}
		if err := p.Store.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.Hash, err)
		}
	}

	txStateSets, err := p.traceBlock(ctx, txs)
	if err != nil {
		return fmt.Errorf("trace block %d: %w", n, err)
	}

	edges := analyzer.Analyze(n, txStateSets)

	if err := p.Store.DeleteDependencyEdgesByBlock(ctx, n); err != nil {
		return fmt.Errorf("delete stale edges for block %d: %w", n, err)
	}
	for _, edge := range edges {
		if err := p.Store.InsertDependencyEdge(ctx, edge); err != nil {
			return fmt.Errorf("insert edge for block %d: %w", n, err)
		}
	}

	cursor := model.AnalyzerCursor{
		ChainID:             p.ChainID,
		LatestBlock:         tip,
		LatestAnalyzedBlock: int64(n),
	}
	if err := p.Store.UpdateCursor(ctx, cursor); err != nil {
		return fmt.Errorf("advance cursor to block %d: %w", n, err)
	}

	p.Logger.Info().
		Uint64("block_number", n).
		Int("transactions", len(txs)).
		Int("edges", len(edges)).
		Msg("block analysed")

	return nil
}

// traceBlock requests both prestate traces for every transaction in the
// block through a bounded worker pool, then reassembles the dense
// index-ordered map the analyzer needs regardless of completion order.
func (p *Pipeline) traceBlock(ctx context.Context, txs []model.Transaction) (map[uint64]model.TransactionStateSet, error) {
	workers := p.TraceConcurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(txs) && len(txs) > 0 {
		workers = len(txs)
	}

	jobs := make(chan model.Transaction)
	results := make(chan tracedTx, len(txs))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tx := range jobs {
				set, err := p.traceOne(ctx, tx)
				results <- tracedTx{index: tx.Index, set: set, err: err}
			}
		}()
	}

	go func() {
		for _, tx := range txs {
			jobs <- tx
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[uint64]model.TransactionStateSet, len(txs))
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[r.index] = r.set
	}
	return out, nil
}

func (p *Pipeline) traceOne(ctx context.Context, tx model.Transaction) (model.TransactionStateSet, error) {
	hash := common.HexToHash(tx.Hash)

	readFrame, err := p.RPC.TracePrestateRead(ctx, hash)
	if err != nil {
		return model.TransactionStateSet{}, fmt.Errorf("read trace for %s: %w", tx.Hash, err)
	}
	writeFrame, err := p.RPC.TracePrestateWrite(ctx, hash)
	if err != nil {
		return model.TransactionStateSet{}, fmt.Errorf("write trace for %s: %w", tx.Hash, err)
	}

	return model.TransactionStateSet{
		Read:  stateset.Extract(readFrame),
		Write: stateset.Extract(writeFrame),
	}, nil
}
