// Package store defines the typed persistence contract used by the
// analyzer pipeline and the HTTP read API, and a PostgreSQL-backed
// implementation of it over a pgx connection pool.
package store

import (
	"context"
	"fmt"

	"github.com/example/pevm-analyzer/internal/model"
)

// Error wraps a storage failure with the operation that produced it.
// Connectivity loss and constraint violations other than the documented
// idempotent conflicts surface this way; the two documented conflicts
// (re-inserting a block/transaction with the same hash, re-inserting a
// cursor for a chain-id that already has one) are swallowed by the
// implementation instead of returned as errors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Store is the full persistence contract the pipeline, supervisor, and
// HTTP handlers depend on.
type Store interface {
	InsertBlock(ctx context.Context, block model.Block) error
	InsertTransaction(ctx context.Context, tx model.Transaction) error
	GetTransactionsByBlock(ctx context.Context, blockNumber uint64) ([]model.Transaction, error)

	InsertDependencyEdge(ctx context.Context, edge model.DependencyEdge) error
	DeleteDependencyEdgesByBlock(ctx context.Context, blockNumber uint64) error
	GetDependencyEdgesByBlock(ctx context.Context, blockNumber uint64) ([]model.DependencyEdge, error)

	GetCursor(ctx context.Context, chainID int64) (*model.AnalyzerCursor, error)
	InsertCursor(ctx context.Context, cursor model.AnalyzerCursor) error
	UpdateCursor(ctx context.Context, cursor model.AnalyzerCursor) error

	Close()
}
