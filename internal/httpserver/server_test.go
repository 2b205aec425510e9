package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pevm-analyzer/internal/model"
)

type fakeStore struct {
	txs    []model.Transaction
	edges  []model.DependencyEdge
	cursor *model.AnalyzerCursor
}

func (f *fakeStore) InsertBlock(ctx context.Context, _ model.Block) error            { return nil }
func (f *fakeStore) InsertTransaction(ctx context.Context, _ model.Transaction) error { return nil }
func (f *fakeStore) GetTransactionsByBlock(ctx context.Context, n uint64) ([]model.Transaction, error) {
	return f.txs, nil
}
func (f *fakeStore) InsertDependencyEdge(ctx context.Context, _ model.DependencyEdge) error { return nil }
func (f *fakeStore) DeleteDependencyEdgesByBlock(ctx context.Context, _ uint64) error        { return nil }
func (f *fakeStore) GetDependencyEdgesByBlock(ctx context.Context, n uint64) ([]model.DependencyEdge, error) {
	return f.edges, nil
}
func (f *fakeStore) GetCursor(ctx context.Context, chainID int64) (*model.AnalyzerCursor, error) {
	return f.cursor, nil
}
func (f *fakeStore) InsertCursor(ctx context.Context, _ model.AnalyzerCursor) error { return nil }
func (f *fakeStore) UpdateCursor(ctx context.Context, _ model.AnalyzerCursor) error { return nil }
func (f *fakeStore) Close()                                                      {}

type fakeTip struct{ tip uint64 }

func (f *fakeTip) LatestBlockNumber(ctx context.Context) (uint64, error) { return f.tip, nil }

func newTestServer(st *fakeStore, tip *fakeTip) *Server {
	return &Server{Store: st, Tip: tip, ChainID: 1, Logger: zerolog.Nop()}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeTip{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestHandleTransactionDAG_ExplicitBlock(t *testing.T) {
	st := &fakeStore{
		txs: []model.Transaction{
			{Index: 1, Hash: "0x1", GasPrice: "100", From: "0xa", To: "0xb"},
			{Index: 0, Hash: "0x0", GasPrice: "50", From: "0xc", To: "0xd"},
		},
		edges: []model.DependencyEdge{{Source: 1, Target: 0, DepType: model.DepBalance}},
	}
	s := newTestServer(st, &fakeTip{})

	req := httptest.NewRequest(http.MethodGet, "/data/evm/transaction-dag?block_number=42", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp transactionDAGResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 42, resp.BlockNumber)
	require.Len(t, resp.Transactions, 2)
	assert.EqualValues(t, 0, resp.Transactions[0].Index)
	assert.Equal(t, "50", resp.Transactions[0].GasUsed)
	require.Len(t, resp.Dags, 1)
	assert.Equal(t, model.DepBalance, resp.Dags[0].DepType)
}

func TestHandleTransactionDAG_DefaultBlock(t *testing.T) {
	st := &fakeStore{cursor: &model.AnalyzerCursor{ChainID: 1, LatestAnalyzedBlock: 5}}
	s := newTestServer(st, &fakeTip{tip: 100})

	req := httptest.NewRequest(http.MethodGet, "/data/evm/transaction-dag", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp transactionDAGResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// tip-10 = 90, but latest_analyzed_block = 5 clamps the default down.
	assert.EqualValues(t, 5, resp.BlockNumber)
}

func TestHandleAnalyzerState(t *testing.T) {
	st := &fakeStore{cursor: &model.AnalyzerCursor{ChainID: 1, LatestAnalyzedBlock: 123}}
	s := newTestServer(st, &fakeTip{})

	req := httptest.NewRequest(http.MethodGet, "/data/evm/parallel-analyzer-state", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123", strings.TrimSpace(rec.Body.String()))
}

func TestHandleNotFound(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeTip{})
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be found")
}
