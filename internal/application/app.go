// Package application wires configuration, storage and the table service
// together for the server and the command line tool.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/DataTable/internal/config"
	"github.com/JonMunkholm/DataTable/internal/core"
	"github.com/JonMunkholm/DataTable/internal/store"
)

// App is an opened table service and the store behind it.
type App struct {
	Config    *config.Config
	Store     store.Store
	Persister *store.Persister
	Service   *core.Service
}

// Open connects the configured store and rehydrates the service from it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	p := store.NewPersister(st, cfg.Storage.Key)
	svc, err := core.NewService(ctx, Options(cfg, p))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open service: %w", err)
	}

	slog.Debug("table state loaded",
		"mode", cfg.Storage.Mode,
		"key", p.Key(),
		"rows", len(svc.State().Table.Data),
	)
	return &App{Config: cfg, Store: st, Persister: p, Service: svc}, nil
}

// Options maps cfg onto service options using persister p.
func Options(cfg *config.Config, p core.Persister) core.Options {
	return core.Options{
		Persister:         p,
		MaxImportSize:     cfg.Import.MaxFileSize,
		ImportConcurrency: cfg.Import.MaxConcurrent,
		ImportWait:        cfg.Import.MaxWaitTime,
		ImportTimeout:     cfg.Import.Timeout,
		PageSize:          cfg.Table.PageSize,
	}
}

// Purge deletes the persisted state, theme included. The open service
// keeps its in-memory state, so callers close the App afterwards.
func (a *App) Purge(ctx context.Context) error {
	if err := a.Persister.Purge(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	slog.Warn("persisted state purged", "key", a.Persister.Key())
	return nil
}

// Close waits for running imports, bounded by ctx, then closes the store.
func (a *App) Close(ctx context.Context) error {
	var drainErr error
	if active := a.Service.Limiter().Active(); active > 0 {
		slog.Info("waiting for imports to complete", "active", active)
		drainErr = a.Service.Limiter().WaitForDrain(ctx)
		if drainErr != nil {
			slog.Warn("imports did not complete in time", "error", drainErr)
		}
	}
	return errors.Join(drainErr, a.Store.Close())
}
