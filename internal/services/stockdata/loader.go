// Package stockdata coordinates the cache and the gateway for the selected
// symbol and exposes the committed result with its loading and error status.
package stockdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"

	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/ternarybob/stockscan/internal/models"
)

// ErrNoData is the error state for a fetch that produced no usable record.
var ErrNoData = errors.New("no data returned (possible rate limit or invalid symbol)")

// Source says where a committed record came from.
type Source string

const (
	SourceNone     Source = ""
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
)

// State is the observable result for the current selection.
type State struct {
	Symbol    string
	Data      *models.StockData
	Loading   bool
	Err       error
	Source    Source
	LoadID    string
	UpdatedAt time.Time
}

// Loader serves records from the dataset cache while fresh and refetches
// through the gateway otherwise. Concurrent loads of the same symbol share
// one upstream fetch.
type Loader struct {
	gateway interfaces.StockGateway
	cache   interfaces.StockCache
	logger  arbor.ILogger

	searchCache bool
	group       singleflight.Group

	mu          sync.Mutex
	generation  uint64
	state       State
	subscribers map[int]chan State
	nextSubID   int
}

// NewLoader creates a loader with the search cache enabled.
func NewLoader(gateway interfaces.StockGateway, cache interfaces.StockCache, logger arbor.ILogger) *Loader {
	return &Loader{
		gateway:     gateway,
		cache:       cache,
		logger:      logger,
		searchCache: true,
		subscribers: make(map[int]chan State),
	}
}

// WithSearchCache toggles caching of symbol searches.
func (l *Loader) WithSearchCache(enabled bool) *Loader {
	l.searchCache = enabled
	return l
}

// Load resolves symbol synchronously without touching the committed state.
// A fresh cache hit issues no network call. Otherwise the gateway is called,
// and only a successful record is written back to the cache; a failed
// refetch leaves any previous entry in place.
func (l *Loader) Load(ctx context.Context, symbol string) State {
	sym := common.NormalizeSymbol(symbol)
	if sym == "" {
		return State{}
	}

	loadID := common.NewLoadID()

	if data, ok := l.cache.GetFreshDataset(ctx, sym); ok {
		l.logger.Debug().Str("symbol", sym).Str("load_id", loadID).Msg("Serving stock data from cache")
		return State{Symbol: sym, Data: data, Source: SourceCache, LoadID: loadID, UpdatedAt: time.Now()}
	}

	v, err, shared := l.group.Do(sym, func() (interface{}, error) {
		return l.fetchAndStore(ctx, sym, loadID)
	})
	if shared {
		l.logger.Debug().Str("symbol", sym).Str("load_id", loadID).Msg("Joined in-flight fetch")
	}
	if err != nil {
		return State{Symbol: sym, Err: err, LoadID: loadID, UpdatedAt: time.Now()}
	}

	return State{Symbol: sym, Data: v.(*models.StockData), Source: SourceUpstream, LoadID: loadID, UpdatedAt: time.Now()}
}

func (l *Loader) fetchAndStore(ctx context.Context, sym, loadID string) (*models.StockData, error) {
	result, err := l.gateway.FetchFullStockData(ctx, sym)
	if err != nil {
		l.logger.Warn().Err(err).Str("symbol", sym).Str("load_id", loadID).Msg("Stock data fetch failed")
		return nil, err
	}

	if !result.IsOK() || result.Value == nil {
		l.logger.Warn().
			Str("symbol", sym).
			Str("load_id", loadID).
			Str("status", string(result.Status)).
			Str("reason", result.Reason).
			Msg("No usable stock data returned")
		if result.Status == models.ResultFailed && result.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoData, result.Reason)
		}
		return nil, ErrNoData
	}

	if err := l.cache.PutDataset(ctx, sym, result.Value); err != nil {
		l.logger.Warn().Err(err).Str("symbol", sym).Str("load_id", loadID).Msg("Failed to cache stock data")
	}

	l.logger.Info().
		Str("symbol", sym).
		Str("load_id", loadID).
		Int("quick_scan_score", result.Value.Analysis.QuickScanScore).
		Msg("Stock data loaded from upstream")

	return result.Value, nil
}

// Select starts a load for symbol in the background. Any earlier selection
// still in flight is superseded: its result is discarded on arrival.
// It returns the generation assigned to this selection.
func (l *Loader) Select(ctx context.Context, symbol string) uint64 {
	sym := common.NormalizeSymbol(symbol)

	l.mu.Lock()
	l.generation++
	gen := l.generation
	if sym == "" {
		l.mu.Unlock()
		return gen
	}
	l.state.Symbol = sym
	l.state.Loading = true
	l.state.Err = nil
	l.publishLocked()
	l.mu.Unlock()

	common.SafeGo(l.logger, "stockdata.select", func() {
		l.commit(gen, l.Load(ctx, sym))
	})
	return gen
}

// Refresh re-runs the load for the current selection under the same cache
// rule. It returns the new generation, or 0 when nothing is selected.
func (l *Loader) Refresh(ctx context.Context) uint64 {
	l.mu.Lock()
	sym := l.state.Symbol
	l.mu.Unlock()

	if sym == "" {
		return 0
	}
	return l.Select(ctx, sym)
}

// commit stores st as the observable state if gen is still the current
// selection. It reports whether the state was committed.
func (l *Loader) commit(gen uint64, st State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		l.logger.Debug().
			Str("symbol", st.Symbol).
			Str("load_id", st.LoadID).
			Msg("Discarding result of superseded selection")
		return false
	}

	// A failed refresh keeps showing the last record for the same symbol.
	if st.Err != nil && st.Data == nil && l.state.Data != nil && l.state.Data.Overview.Symbol == st.Symbol {
		st.Data = l.state.Data
		st.Source = l.state.Source
	}

	st.Loading = false
	l.state = st
	l.publishLocked()
	return true
}

// State returns the committed snapshot.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe returns a channel receiving every published state and a function
// that unsubscribes and closes it. Slow subscribers miss intermediate states.
func (l *Loader) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 4)

	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subscribers, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

func (l *Loader) publishLocked() {
	for _, ch := range l.subscribers {
		select {
		case ch <- l.state:
		default:
			// Drop the oldest queued state so the latest one is delivered.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- l.state:
			default:
			}
		}
	}
}

// Search returns matches for query, serving repeated queries from the search
// cache. Only successful upstream answers (including zero matches) are cached.
func (l *Loader) Search(ctx context.Context, query string) models.Result[[]models.SearchResult] {
	if l.searchCache && query != "" {
		if results, ok := l.cache.GetSearch(ctx, query); ok {
			return models.Ok(results)
		}
	}

	result := l.gateway.SearchSymbol(ctx, query)
	if result.IsOK() && l.searchCache {
		if err := l.cache.PutSearch(ctx, query, result.Value); err != nil {
			l.logger.Warn().Err(err).Str("query", query).Msg("Failed to cache search results")
		}
	}
	return result
}
