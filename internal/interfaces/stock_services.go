package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/stockscan/internal/models"
)

// ErrNoCredential is returned when no Alpha Vantage API key is configured.
// It is the only failure that propagates to the caller as a hard error.
var ErrNoCredential = errors.New("alpha vantage API key not configured")

// CredentialStore holds the single upstream access token.
type CredentialStore interface {
	// APIKey returns the configured key or ErrNoCredential
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error
}

// StockGateway issues upstream queries and assembles normalized records.
type StockGateway interface {
	// SearchSymbol never returns an error; failures are carried in the result
	SearchSymbol(ctx context.Context, keyword string) models.Result[[]models.SearchResult]

	// FetchFullStockData returns ErrNoCredential when no key is configured;
	// every other failure is reported through the result status
	FetchFullStockData(ctx context.Context, symbol string) (models.Result[*models.StockData], error)
}

// StockCache is the two-tier local cache (search results and full datasets).
type StockCache interface {
	GetSearch(ctx context.Context, query string) ([]models.SearchResult, bool)
	PutSearch(ctx context.Context, query string, results []models.SearchResult) error
	ClearSearch(ctx context.Context) error

	// GetDataset returns the stored entry regardless of freshness
	GetDataset(ctx context.Context, symbol string) (*models.CacheEntry[*models.StockData], bool)
	// GetFreshDataset returns the stored record only while inside the freshness window
	GetFreshDataset(ctx context.Context, symbol string) (*models.StockData, bool)
	PutDataset(ctx context.Context, symbol string, data *models.StockData) error
	Invalidate(ctx context.Context, symbol string) error
	ListCachedSymbols(ctx context.Context) ([]string, error)
	IsFresh(capturedAt time.Time) bool
}
