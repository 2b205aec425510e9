// Package supervisor runs the long-lived, resumable, per-chain loop
// that drives the block pipeline: bootstrap the cursor, poll the chain
// tip, and process blocks one at a time in strictly ascending order.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/pevm-analyzer/internal/model"
	"github.com/example/pevm-analyzer/internal/store"
)

// pollInterval is the sleep applied when the analyzer has caught up
// with the chain tip — one nominal Ethereum block interval.
const pollInterval = 12 * time.Second

// BlockRunner runs the block pipeline for one block number. Satisfied
// by *pipeline.Pipeline; accepted as an interface so the supervisor can
// be tested against a fake.
type BlockRunner interface {
	Run(ctx context.Context, n uint64, tip uint64) error
}

// TipSource reports the current chain tip.
type TipSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Supervisor owns the bootstrap-and-loop lifecycle for a single
// chain-id. It never runs two iterations concurrently against the same
// chain: the main loop is strictly sequential.
type Supervisor struct {
	Store      store.Store
	Tip        TipSource
	Pipeline   BlockRunner
	Logger     zerolog.Logger
	ChainID    int64
	StartBlock int64
}

// Run bootstraps the cursor (inserting a fresh one if absent) and then
// loops until ctx is cancelled or a block fails. A cancelled context
// returns nil: cancellation is not treated as a pipeline error, and no
// partial cursor advancement can occur because the cursor is only
// written after a fully successful iteration.
func (s *Supervisor) Run(ctx context.Context) error {
	blockNumber, err := s.bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap cursor: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tip, err := s.Tip.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("query chain tip: %w", err)
		}

		if blockNumber > tip {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollInterval):
			}
			continue
		}

		if err := s.Pipeline.Run(ctx, blockNumber, tip); err != nil {
			s.Logger.Error().
				Uint64("block_number", blockNumber).
				Err(err).
				Msg("analysing block failed, halting supervisor loop")
			return fmt.Errorf("analyse block %d: %w", blockNumber, err)
		}

		blockNumber++
	}
}

// bootstrap looks up the persisted cursor for the configured chain-id.
// If none exists, a fresh one is inserted with latest_analyzed_block =
// start_block - 1 and latest_block = 0. The working start is
// max(latest_analyzed_block + 1, start_block), so a restart always
// resumes strictly after the last fully analysed block.
func (s *Supervisor) bootstrap(ctx context.Context) (uint64, error) {
	cursor, err := s.Store.GetCursor(ctx, s.ChainID)
	if err != nil {
		return 0, err
	}

	if cursor == nil {
		fresh := model.AnalyzerCursor{
			ChainID:             s.ChainID,
			LatestBlock:         0,
			StartBlock:          s.StartBlock,
			LatestAnalyzedBlock: s.StartBlock - 1,
		}
		if err := s.Store.InsertCursor(ctx, fresh); err != nil {
			return 0, err
		}
		return uint64(s.StartBlock), nil
	}

	working := cursor.LatestAnalyzedBlock + 1
	if s.StartBlock > working {
		working = s.StartBlock
	}
	return uint64(working), nil
}
