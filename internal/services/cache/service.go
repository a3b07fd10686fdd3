// Package cache provides the local two-tier cache: symbol searches keyed by
// literal query text (no expiry) and full datasets with a freshness window.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/ternarybob/stockscan/internal/models"
)

const (
	// SearchCacheKey holds the whole query -> results map as one JSON value.
	SearchCacheKey = "searchSymbolCache_v1"

	// DatasetKeyPrefix prefixes the JSON StockData for a symbol.
	DatasetKeyPrefix = "symbolData:"

	// TimestampKeyPrefix prefixes the epoch-millisecond capture time for a symbol.
	TimestampKeyPrefix = "symbolDataTimestamp:"
)

// Service implements interfaces.StockCache over a KeyValueStorage.
type Service struct {
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
	ttl    time.Duration
	now    func() time.Time

	// searchMu serializes read-modify-write of the search map
	searchMu sync.Mutex
}

// NewService creates a cache with the default 24h freshness window.
func NewService(kv interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		kv:     kv,
		logger: logger,
		ttl:    common.DefaultFreshnessWindow,
		now:    time.Now,
	}
}

// WithTTL sets a custom freshness window.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithClock replaces the time source used for freshness checks and capture stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// TTL returns the freshness window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// IsFresh reports whether data captured at capturedAt is inside the window now.
func (s *Service) IsFresh(capturedAt time.Time) bool {
	return common.IsFresh(capturedAt, s.now(), s.ttl)
}

// --- search cache ---

// GetSearch returns the cached results for the exact query text.
func (s *Service) GetSearch(ctx context.Context, query string) ([]models.SearchResult, bool) {
	cache := s.loadSearch(ctx)
	results, ok := cache[query]
	if ok {
		s.logger.Debug().Str("query", query).Int("matches", len(results)).Msg("Search cache hit")
	}
	return results, ok
}

// PutSearch stores results for the exact query text, keeping other entries.
func (s *Service) PutSearch(ctx context.Context, query string, results []models.SearchResult) error {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()

	cache := s.loadSearch(ctx)
	if results == nil {
		results = []models.SearchResult{}
	}
	cache[query] = results

	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal search cache: %w", err)
	}
	if err := s.kv.Set(ctx, SearchCacheKey, string(data), "Symbol search cache"); err != nil {
		return fmt.Errorf("failed to store search cache: %w", err)
	}
	return nil
}

// ClearSearch drops every cached search.
func (s *Service) ClearSearch(ctx context.Context) error {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()

	if err := s.kv.Delete(ctx, SearchCacheKey); err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear search cache: %w", err)
	}
	s.logger.Info().Msg("Search cache cleared")
	return nil
}

// loadSearch reads the search map; absent or malformed data yields an empty map.
func (s *Service) loadSearch(ctx context.Context) models.SearchCache {
	value, err := s.kv.Get(ctx, SearchCacheKey)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to read search cache")
		}
		return models.SearchCache{}
	}

	var cache models.SearchCache
	if err := json.Unmarshal([]byte(value), &cache); err != nil || cache == nil {
		s.logger.Debug().Err(err).Msg("Ignoring malformed search cache")
		return models.SearchCache{}
	}
	return cache
}

// --- dataset cache ---

func datasetKey(symbol string) string {
	return DatasetKeyPrefix + common.NormalizeSymbol(symbol)
}

func timestampKey(symbol string) string {
	return TimestampKeyPrefix + common.NormalizeSymbol(symbol)
}

// GetDataset returns the stored record and its capture time regardless of
// freshness. A missing or malformed record or timestamp is a miss.
func (s *Service) GetDataset(ctx context.Context, symbol string) (*models.CacheEntry[*models.StockData], bool) {
	value, err := s.kv.Get(ctx, datasetKey(symbol))
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to read cached dataset")
		}
		return nil, false
	}

	var data models.StockData
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Ignoring malformed cached dataset")
		return nil, false
	}

	stamp, err := s.kv.Get(ctx, timestampKey(symbol))
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Cached dataset has no timestamp")
		return nil, false
	}
	capturedAt, ok := common.ParseEpochMillis(stamp)
	if !ok {
		s.logger.Debug().Str("symbol", symbol).Str("timestamp", stamp).Msg("Ignoring malformed dataset timestamp")
		return nil, false
	}

	return &models.CacheEntry[*models.StockData]{Payload: &data, CapturedAt: capturedAt}, true
}

// GetFreshDataset returns the stored record only while it is inside the freshness window.
func (s *Service) GetFreshDataset(ctx context.Context, symbol string) (*models.StockData, bool) {
	entry, ok := s.GetDataset(ctx, symbol)
	if !ok {
		return nil, false
	}

	staleness := common.CheckStaleness(entry.CapturedAt, s.now(), s.ttl)
	s.logger.Debug().
		Str("symbol", common.NormalizeSymbol(symbol)).
		Bool("stale", staleness.IsStale).
		Str("reason", staleness.Reason).
		Msg("Dataset cache lookup")

	if staleness.IsStale {
		return nil, false
	}
	return entry.Payload, true
}

// PutDataset validates and stores data, replacing any previous entry, and
// stamps it with the current time. The record is written before the stamp.
func (s *Service) PutDataset(ctx context.Context, symbol string, data *models.StockData) error {
	if err := data.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal stock data: %w", err)
	}

	sym := common.NormalizeSymbol(symbol)
	if err := s.kv.Set(ctx, datasetKey(sym), string(payload), "Stock data for "+sym); err != nil {
		return fmt.Errorf("failed to store stock data: %w", err)
	}
	if err := s.kv.Set(ctx, timestampKey(sym), common.EpochMillis(s.now()), "Capture time for "+sym); err != nil {
		return fmt.Errorf("failed to store stock data timestamp: %w", err)
	}

	s.logger.Debug().Str("symbol", sym).Msg("Dataset cached")
	return nil
}

// Invalidate removes the record and timestamp for symbol.
func (s *Service) Invalidate(ctx context.Context, symbol string) error {
	for _, key := range []string{datasetKey(symbol), timestampKey(symbol)} {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	s.logger.Info().Str("symbol", common.NormalizeSymbol(symbol)).Msg("Dataset cache invalidated")
	return nil
}

// ListCachedSymbols returns the symbols with a stored dataset, sorted.
func (s *Service) ListCachedSymbols(ctx context.Context) ([]string, error) {
	pairs, err := s.kv.ListByPrefix(ctx, DatasetKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached datasets: %w", err)
	}

	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		symbols = append(symbols, strings.TrimPrefix(p.Key, DatasetKeyPrefix))
	}
	sort.Strings(symbols)
	return symbols, nil
}
