package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/example/pevm-analyzer/internal/model"
)

// TipSource reports the current chain tip, used to compute the default
// block for the transaction-dag endpoint when no block_number query
// parameter is given.
type TipSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// transactionView is the wire shape of one transaction in a
// transaction-dag response.
//
// gas_used is populated from the gas_price column, not an actual
// gas-used figure. This reproduces a field-name mismatch present in the
// system this was derived from; see DESIGN.md.
type transactionView struct {
	Index   uint64 `json:"index"`
	TxHash  string `json:"tx_hash"`
	TxType  uint8  `json:"tx_type"`
	GasUsed string `json:"gas_used"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type dependencyView struct {
	Source  uint64        `json:"source"`
	Target  uint64        `json:"target"`
	DepType model.DepType `json:"dep_type"`
}

type transactionDAGResponse struct {
	BlockNumber  int64             `json:"block_number"`
	Transactions []transactionView `json:"transactions"`
	Dags         []dependencyView  `json:"dags"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleTransactionDAG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blockNumber, err := s.resolveBlockNumber(ctx, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	txs, err := s.Store.GetTransactionsByBlock(ctx, uint64(blockNumber))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Index < txs[j].Index })

	edges, err := s.Store.GetDependencyEdgesByBlock(ctx, uint64(blockNumber))
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := transactionDAGResponse{
		BlockNumber:  blockNumber,
		Transactions: make([]transactionView, 0, len(txs)),
		Dags:         make([]dependencyView, 0, len(edges)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, transactionView{
			Index:   tx.Index,
			TxHash:  tx.Hash,
			TxType:  tx.Type,
			GasUsed: tx.GasPrice,
			From:    tx.From,
			To:      tx.To,
		})
	}
	for _, e := range edges {
		resp.Dags = append(resp.Dags, dependencyView{Source: e.Source, Target: e.Target, DepType: e.DepType})
	}

	writeJSON(w, http.StatusOK, resp)
}

// resolveBlockNumber returns the explicit block_number query parameter
// when given, or else min(tip-10, latest_analyzed_block): the tip-10
// heuristic avoids racing the analyzer, and clamping to
// latest_analyzed_block guarantees the block actually has a chance of
// having been analysed.
func (s *Server) resolveBlockNumber(ctx context.Context, r *http.Request) (int64, error) {
	if raw := r.URL.Query().Get("block_number"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, httpError{status: http.StatusBadRequest, msg: "invalid block_number"}
		}
		return n, nil
	}

	tip, err := s.Tip.LatestBlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	candidate := int64(tip) - 10
	if candidate < 0 {
		candidate = 0
	}

	cursor, err := s.Store.GetCursor(ctx, s.ChainID)
	if err != nil {
		return 0, err
	}
	if cursor != nil && cursor.LatestAnalyzedBlock < candidate {
		candidate = cursor.LatestAnalyzedBlock
	}
	if candidate < 0 {
		candidate = 0
	}
	return candidate, nil
}

func (s *Server) handleAnalyzerState(w http.ResponseWriter, r *http.Request) {
	cursor, err := s.Store.GetCursor(r.Context(), s.ChainID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cursor == nil {
		s.writeError(w, httpError{status: http.StatusNotFound, msg: "parallel analyzer state not found"})
		return
	}
	writeJSON(w, http.StatusOK, cursor.LatestAnalyzedBlock)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("The requested resource could not be found."))
}

// httpError is a handler-local error carrying the status code it
// should be reported with; anything else defaults to 500.
type httpError struct {
	status int
	msg    string
}

func (e httpError) Error() string { return e.msg }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var he httpError
	if errors.As(err, &he) {
		http.Error(w, he.msg, he.status)
		return
	}
	s.Logger.Error().Err(err).Msg("request failed")
	http.Error(w, "Internal Server Error: "+err.Error(), http.StatusInternalServerError)
}
