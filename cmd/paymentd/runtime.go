package main

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/repository"
)

// loadConfig reads and validates configuration and builds the logger.
func loadConfig(path string) (*common.Config, *slog.Logger, error) {
	cfg, err := common.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Log.NewLogger(), nil
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.ReceiptRepository, func(), error) {
	sc := repository.Config{
		Driver:          cfg.Store.Driver,
		DSN:             cfg.Store.DSN,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
		DialTimeout:     cfg.Store.DialTimeout,
	}
	return repository.OpenReceiptRepository(ctx, sc, cfg.Dirs.Receipts, logger)
}
