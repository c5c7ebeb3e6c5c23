// Package main is the entry point for the quicktask CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"quicktask/internal/auth"
	"quicktask/internal/backend"
	"quicktask/internal/cli"
	"quicktask/internal/commands"
	"quicktask/internal/config"
	"quicktask/internal/logging"
	"quicktask/internal/service"
	"quicktask/internal/tokenstore"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, openService)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// openService builds the configured provider on top of the encrypted vault
// in the config directory.
func openService(ctx context.Context, cfg *config.Config, errOut io.Writer) (service.Service, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, errors.Wrap(err, "create config directory")
	}
	store, err := tokenstore.OpenBolt(cfg.VaultPath(), cfg.KeyPath())
	if err != nil {
		return nil, &tokenstore.StoreError{Op: "open", Slot: cfg.Provider, Err: err}
	}

	logger := logging.New(cfg.Debug, errOut)
	logger.Debug("opened token vault", zap.String("path", store.Path()))

	return backend.Default.Open(ctx, cfg, backend.Deps{
		Store:   store,
		Consent: auth.NewLoopbackConsent(errOut),
		Logger:  logger,
	})
}
