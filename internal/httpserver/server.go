// Package httpserver is the small read-only JSON API described in the
// design: health, the per-block transaction dependency graph, and the
// analyzer's progress cursor. It shares the store with the supervisor
// loop and never writes.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/example/pevm-analyzer/internal/httpserver/middleware"
	"github.com/example/pevm-analyzer/internal/store"
)

// Server holds the dependencies the handlers need: the shared store,
// an RPC tip source for the default-block heuristic, the configured
// chain-id, and a logger.
type Server struct {
	Store   store.Store
	Tip     TipSource
	ChainID int64
	Logger  zerolog.Logger
}

// Router builds the chi router with the full middleware stack applied:
// panic recovery, request-id tagging, structured logging, permissive
// CORS, and a best-effort inbound rate limit.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(50, 100))

	r.Get("/health", s.handleHealth)
	r.Get("/data/evm/transaction-dag", s.handleTransactionDAG)
	r.Get("/data/evm/parallel-analyzer-state", s.handleAnalyzerState)
	r.NotFound(s.handleNotFound)

	return r
}

// NewHTTPServer wraps the router in an *http.Server bound to addr with
// conservative read and write timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
