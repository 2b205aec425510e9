// Command pevm-analyzer runs the parallel-dependency analyzer: the
// supervisor loop that walks an Ethereum-compatible chain block by
// block, and the read-only HTTP API serving the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/pevm-analyzer/internal/config"
	"github.com/example/pevm-analyzer/internal/httpserver"
	"github.com/example/pevm-analyzer/internal/logging"
	"github.com/example/pevm-analyzer/internal/pipeline"
	"github.com/example/pevm-analyzer/internal/rpcclient"
	"github.com/example/pevm-analyzer/internal/store"
	"github.com/example/pevm-analyzer/internal/supervisor"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	printVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "--config is required")
		os.Exit(1)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)
	logger.Info().Str("version", version).Msg("starting pevm-analyzer")

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	rpc, err := rpcclient.Dial(ctx, cfg.ExecutionAPI, cfg.ChainID)
	if err != nil {
		return fmt.Errorf("dial execution api: %w", err)
	}
	defer rpc.Close()

	pipe := &pipeline.Pipeline{
		Store:            db,
		RPC:              rpc,
		Logger:           logger,
		ChainID:          cfg.ChainID,
		TraceConcurrency: cfg.TraceConcurrency,
	}
	super := &supervisor.Supervisor{
		Store:      db,
		Tip:        rpc,
		Pipeline:   pipe,
		Logger:     logger,
		ChainID:    cfg.ChainID,
		StartBlock: cfg.StartBlock,
	}

	srv := &httpserver.Server{Store: db, Tip: rpc, ChainID: cfg.ChainID, Logger: logger}
	httpSrv := httpserver.NewHTTPServer(cfg.ServerAddr, srv.Router())

	supervisorErr := make(chan error, 1)
	go func() {
		supervisorErr <- super.Run(ctx)
	}()

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-supervisorErr:
		// A halted supervisor is terminal for the analyzer loop but not
		// for the process: the HTTP server keeps serving so operators
		// can still observe the last analyzed block. Only an external
		// shutdown signal tears the server down.
		if err != nil {
			logger.Error().Err(err).Msg("supervisor loop halted, http server keeps serving")
		}
		<-ctx.Done()
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}

	return nil
}
