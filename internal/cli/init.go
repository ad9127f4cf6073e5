// Package cli implements the budgetbuddy command line: the API server,
// schema migrations, ledger reconciliation, statement export and the
// event worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"budgetbuddy/internal/app"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
)

// LoadAndValidateConfig loads .env for local development, then the
// configuration from the environment over the optional file.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger and makes it the slog default.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := app.NewLogger(cfg, w)
	log.SetDefault(logger)
	return logger
}

// notifyShutdown returns a context cancelled on SIGINT or SIGTERM.
func notifyShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
