package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/pevm-analyzer/internal/model"
)

// PostgresStore implements Store over a shared pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Open connects a pool to databaseURL. The pool is sized to comfortably
// serve both the supervisor and the HTTP server concurrently.
func Open(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &Error{Op: "parse database url", Err: err}
	}
	if cfg.MaxConns < 32 {
		cfg.MaxConns = 32
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &Error{Op: "open pool", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) InsertBlock(ctx context.Context, b model.Block) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocks (
			parent_hash, block_hash, block_number, gas_used, gas_limit,
			block_timestamp, base_fee_per_gas, blob_gas_used, excess_blob_gas,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (block_hash) DO NOTHING
	`, b.ParentHash, b.BlockHash, b.BlockNumber, b.GasUsed, b.GasLimit,
		b.Timestamp, b.BaseFeePerGas, b.BlobGasUsed, b.ExcessBlobGas)
	if err != nil {
		return &Error{Op: "insert block", Err: err}
	}
	return nil
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, tx model.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (
			block_number, tx_index, tx_hash, tx_from, tx_to, gas_price,
			max_fee_per_gas, max_priority_fee_per_gas, max_fee_per_blob_gas,
			gas, tx_value, input, nonce, tx_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (tx_hash) DO NOTHING
	`, tx.BlockNumber, tx.Index, tx.Hash, tx.From, tx.To, tx.GasPrice,
		tx.MaxFeePerGas, tx.MaxPriorityFeePerGas, tx.MaxFeePerBlobGas,
		tx.GasLimit, tx.Value, tx.Input, tx.Nonce, tx.Type)
	if err != nil {
		return &Error{Op: "insert transaction", Err: err}
	}
	return nil
}

func (s *PostgresStore) GetTransactionsByBlock(ctx context.Context, blockNumber uint64) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT block_number, tx_index, tx_hash, tx_from, tx_to, gas_price,
			max_fee_per_gas, max_priority_fee_per_gas, max_fee_per_blob_gas,
			gas, tx_value, input, nonce, tx_type
		FROM transactions
		WHERE block_number = $1
	`, blockNumber)
	if err != nil {
		return nil, &Error{Op: "get transactions by block", Err: err}
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.BlockNumber, &tx.Index, &tx.Hash, &tx.From, &tx.To,
			&tx.GasPrice, &tx.MaxFeePerGas, &tx.MaxPriorityFeePerGas, &tx.MaxFeePerBlobGas,
			&tx.GasLimit, &tx.Value, &tx.Input, &tx.Nonce, &tx.Type); err != nil {
			return nil, &Error{Op: "scan transaction", Err: err}
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "get transactions by block", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) InsertDependencyEdge(ctx context.Context, edge model.DependencyEdge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transaction_dags (block_number, source_tx, target_tx, dep_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, edge.BlockNumber, edge.Source, edge.Target, edge.DepType)
	if err != nil {
		return &Error{Op: "insert dependency edge", Err: err}
	}
	return nil
}

func (s *PostgresStore) DeleteDependencyEdgesByBlock(ctx context.Context, blockNumber uint64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transaction_dags WHERE block_number = $1`, blockNumber)
	if err != nil {
		return &Error{Op: "delete dependency edges", Err: err}
	}
	return nil
}

func (s *PostgresStore) GetDependencyEdgesByBlock(ctx context.Context, blockNumber uint64) ([]model.DependencyEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT block_number, source_tx, target_tx, dep_type
		FROM transaction_dags
		WHERE block_number = $1
	`, blockNumber)
	if err != nil {
		return nil, &Error{Op: "get dependency edges", Err: err}
	}
	defer rows.Close()

	var out []model.DependencyEdge
	for rows.Next() {
		var e model.DependencyEdge
		if err := rows.Scan(&e.BlockNumber, &e.Source, &e.Target, &e.DepType); err != nil {
			return nil, &Error{Op: "scan dependency edge", Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "get dependency edges", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) GetCursor(ctx context.Context, chainID int64) (*model.AnalyzerCursor, error) {
	var c model.AnalyzerCursor
	err := s.pool.QueryRow(ctx, `
		SELECT chain_id, latest_block, start_block, latest_analyzed_block
		FROM parallel_analyzer_state
		WHERE chain_id = $1
	`, chainID).Scan(&c.ChainID, &c.LatestBlock, &c.StartBlock, &c.LatestAnalyzedBlock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &Error{Op: "get cursor", Err: err}
	}
	return &c, nil
}

func (s *PostgresStore) InsertCursor(ctx context.Context, c model.AnalyzerCursor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO parallel_analyzer_state (chain_id, latest_block, start_block, latest_analyzed_block, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (chain_id) DO NOTHING
	`, c.ChainID, c.LatestBlock, c.StartBlock, c.LatestAnalyzedBlock)
	if err != nil {
		return &Error{Op: "insert cursor", Err: err}
	}
	return nil
}

func (s *PostgresStore) UpdateCursor(ctx context.Context, c model.AnalyzerCursor) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE parallel_analyzer_state
		SET latest_block = $2, latest_analyzed_block = $3, updated_at = NOW()
		WHERE chain_id = $1
	`, c.ChainID, c.LatestBlock, c.LatestAnalyzedBlock)
	if err != nil {
		return &Error{Op: "update cursor", Err: err}
	}
	return nil
}

