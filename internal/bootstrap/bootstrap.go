// Package bootstrap wires the driven adapters and application services shared
// by the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	githubadapter "github.com/ericfisherdev/trendpanel/internal/adapter/driven/github"
	"github.com/ericfisherdev/trendpanel/internal/adapter/driven/filestore"
	sqliteadapter "github.com/ericfisherdev/trendpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/config"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// App holds the wired application core.
type App struct {
	Dashboard *application.DashboardService
	Cache     *application.QueryCache

	closers []func() error
}

// Wire opens the configured store, builds the GitHub client and composes the
// application services. Close must be called to release the store.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{}

	store, err := app.openStore(ctx, cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	source, err := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("create github client: %w", err)
	}
	logger.Info("github client created", "authenticated", cfg.HasGitHubToken())

	app.Cache = application.NewQueryCache(cfg.StaleTime, cfg.GCTime, cfg.FetchTimeout, logger)
	stars := application.NewStarService(ctx, store, logger)
	app.Dashboard = application.NewDashboardService(source, app.Cache, stars)

	return app, nil
}

// Close releases the store. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.KVStore, error) {
	switch cfg.Store {
	case config.StoreFile:
		store := filestore.New(cfg.StorePath, logger)
		logger.Info("starred store opened", "backend", cfg.Store, "path", store.Path())
		return store, nil

	default:
		// Dual reader/writer with WAL mode.
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		// Run migrations on writer connection.
		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			return nil, err
		}
		logger.Info("starred store opened", "backend", config.StoreSQLite, "path", db.Path(), "schema_version", version)
		return sqliteadapter.NewKVRepo(db), nil
	}
}
