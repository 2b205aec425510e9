// Package logging builds the single zerolog.Logger shared by the
// supervisor loop and the HTTP middleware stack.
package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/example/pevm-analyzer/internal/config"
)

// New builds a logger from the configured level and format. "console"
// renders human-readable lines for local development; anything else
// emits structured JSON.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
