package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// DriverFile selects the JSON file backend in OpenReceiptRepository.
const DriverFile = "file"

// OpenReceiptRepository builds the backend named by cfg.Driver. The returned
// cleanup releases database connections and is safe to call for every backend.
func OpenReceiptRepository(ctx context.Context, cfg Config, receiptsDir string, logger *slog.Logger) (ReceiptRepository, func(), error) {
	switch cfg.Driver {
	case "", DriverFile:
		logger.Info("using file receipt store", "dir", receiptsDir)
		return NewFileReceiptRepository(receiptsDir, logger), func() {}, nil
	case DriverSQLite, DriverPostgres:
		drv, pool, err := Open(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { Close(drv, pool, logger) }
		if err := HealthCheck(ctx, drv, cfg.DialTimeout, logger); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("database health: %w", err)
		}
		repo := NewSQLReceiptRepository(drv, logger)
		if err := repo.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		return repo, cleanup, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
