// -----------------------------------------------------------------------
// Last Modified: Friday, 16th October 2026 3:58:40 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/alphavantage"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/ternarybob/stockscan/internal/services/cache"
	"github.com/ternarybob/stockscan/internal/services/credentials"
	"github.com/ternarybob/stockscan/internal/services/gateway"
	"github.com/ternarybob/stockscan/internal/services/stockdata"
	"github.com/ternarybob/stockscan/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Credential store for the Alpha Vantage key
	Credentials *credentials.Service

	// Upstream client shared by every gateway call (one rate limiter)
	Client *alphavantage.Client

	Gateway   *gateway.Service
	Cache     *cache.Service
	Loader    *stockdata.Loader
	Refresher *stockdata.Refresher
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Str("dataset_ttl", app.Cache.TTL().String()).
		Bool("search_cache", cfg.Cache.SearchEnabled).
		Int("rate_limit", cfg.AlphaVantage.RateLimit).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", a.Config.Storage.Type).
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes the services in dependency order:
// credentials -> client -> gateway -> cache -> loader -> refresher.
func (a *App) initServices() error {
	kv := a.StorageManager.KeyValueStorage()

	a.Credentials = credentials.NewService(kv, a.Config.AlphaVantage.APIKey, a.Logger)

	// The key is resolved per call, so the client is built without one.
	a.Client = alphavantage.NewClient("",
		alphavantage.WithBaseURL(a.Config.AlphaVantage.BaseURL),
		alphavantage.WithTimeout(a.Config.HTTPTimeout()),
		alphavantage.WithRateLimit(a.Config.AlphaVantage.RateLimit),
		alphavantage.WithLogger(a.Logger),
		alphavantage.WithUserAgent(common.UserAgent()),
	)

	a.Gateway = gateway.NewService(a.Client, a.Credentials, a.Logger).
		WithMaxReports(a.Config.AlphaVantage.MaxReports)

	a.Cache = cache.NewService(kv, a.Logger).
		WithTTL(a.Config.DatasetTTL())

	a.Loader = stockdata.NewLoader(a.Gateway, a.Cache, a.Logger).
		WithSearchCache(a.Config.Cache.SearchEnabled)

	a.Refresher = stockdata.NewRefresher(a.Loader, a.Logger)

	return nil
}

// StartRefresher begins the periodic refresh of the current selection when
// enabled in config. It is a no-op otherwise.
func (a *App) StartRefresher(ctx context.Context) error {
	if !a.Config.Refresh.Enabled {
		a.Logger.Debug().Msg("Refresher disabled by configuration")
		return nil
	}
	return a.Refresher.Start(ctx, a.Config.Refresh.Schedule)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Refresher != nil {
		a.Refresher.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
