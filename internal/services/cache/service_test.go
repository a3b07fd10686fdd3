package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stockscan/internal/models"
	"github.com/ternarybob/stockscan/internal/storage/memory"
)

// fakeClock is a settable time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T) (*Service, *memory.KVStorage, *fakeClock) {
	t.Helper()
	logger := arbor.NewLogger()
	kv := memory.NewKVStorage(logger)
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewService(kv, logger).WithClock(clock.Now), kv, clock
}

func sampleData(symbol string) *models.StockData {
	income := []models.IncomeStatement{
		models.NewIncomeStatement(2022, 100, 10),
		models.NewIncomeStatement(2023, 120, 15),
	}
	return &models.StockData{
		Overview:         models.CompanyOverview{Symbol: symbol, Name: symbol + " Corp", CurrentPrice: 10},
		IncomeStatements: income,
		CashFlows:        []models.CashFlow{models.NewCashFlow(2023, 12, income)},
		Analysis: models.AnalysisScores{
			QuickScanScore:       100,
			ReturnPotentialScore: 65,
			ValuationIndicator:   models.ValuationFairlyValued,
		},
	}
}

func TestSearchCache(t *testing.T) {
	svc, kv, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := svc.GetSearch(ctx, "tesco")
	assert.False(t, ok)

	tesco := []models.SearchResult{{Symbol: "TSCO.LON", Name: "Tesco PLC"}}
	require.NoError(t, svc.PutSearch(ctx, "tesco", tesco))
	require.NoError(t, svc.PutSearch(ctx, "zzzz", nil))

	got, ok := svc.GetSearch(ctx, "tesco")
	require.True(t, ok)
	assert.Equal(t, tesco, got)

	// Zero matches are a valid cached answer
	got, ok = svc.GetSearch(ctx, "zzzz")
	require.True(t, ok)
	assert.Empty(t, got)

	// Keyed by literal text
	_, ok = svc.GetSearch(ctx, "Tesco")
	assert.False(t, ok)
	_, ok = svc.GetSearch(ctx, "tesco ")
	assert.False(t, ok)

	raw, err := kv.Get(ctx, "searchSymbolCache_v1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tesco":[{"symbol":"TSCO.LON","name":"Tesco PLC"}],"zzzz":[]}`, raw)

	require.NoError(t, svc.ClearSearch(ctx))
	_, ok = svc.GetSearch(ctx, "tesco")
	assert.False(t, ok)
	require.NoError(t, svc.ClearSearch(ctx))
}

func TestSearchCache_NeverExpires(t *testing.T) {
	svc, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutSearch(ctx, "ibm", []models.SearchResult{{Symbol: "IBM", Name: "IBM"}}))
	clock.Advance(365 * 24 * time.Hour)

	_, ok := svc.GetSearch(ctx, "ibm")
	assert.True(t, ok)
}

func TestSearchCache_Malformed(t *testing.T) {
	svc, kv, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, SearchCacheKey, "{not json", ""))

	_, ok := svc.GetSearch(ctx, "tesco")
	assert.False(t, ok)

	// A write replaces the corrupt map
	require.NoError(t, svc.PutSearch(ctx, "tesco", []models.SearchResult{{Symbol: "TSCO.LON"}}))
	_, ok = svc.GetSearch(ctx, "tesco")
	assert.True(t, ok)
}

func TestDatasetCache_FreshnessBoundary(t *testing.T) {
	tests := []struct {
		name      string
		advance   time.Duration
		wantFresh bool
	}{
		{"immediately", 0, true},
		{"23h59m", 23*time.Hour + 59*time.Minute, true},
		{"24h exactly", 24 * time.Hour, false},
		{"24h00m01s", 24*time.Hour + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clock := newTestCache(t)
			ctx := context.Background()

			require.NoError(t, svc.PutDataset(ctx, "IBM", sampleData("IBM")))
			clock.Advance(tt.advance)

			data, ok := svc.GetFreshDataset(ctx, "IBM")
			assert.Equal(t, tt.wantFresh, ok)
			if tt.wantFresh {
				assert.Equal(t, "IBM Corp", data.Overview.Name)
			}

			// The stale entry is still readable
			entry, ok := svc.GetDataset(ctx, "IBM")
			require.True(t, ok)
			assert.Equal(t, tt.advance, entry.Age(clock.Now()))
		})
	}
}

func TestDatasetCache_KeyLayout(t *testing.T) {
	svc, kv, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutDataset(ctx, "ibm", sampleData("IBM")))

	stamp, err := kv.Get(ctx, "symbolDataTimestamp:IBM")
	require.NoError(t, err)
	assert.Equal(t, "1741597200000", stamp)
	assert.Equal(t, clock.Now().UnixMilli(), int64(1741597200000))

	raw, err := kv.Get(ctx, "symbolData:IBM")
	require.NoError(t, err)
	assert.Contains(t, raw, `"quickScanScore":100`)

	// Lookups normalize the symbol the same way
	_, ok := svc.GetFreshDataset(ctx, " Ibm ")
	assert.True(t, ok)
}

func TestDatasetCache_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		stamp string
	}{
		{"corrupt json", "{oops", "1741597200000"},
		{"missing timestamp", `{"overview":{"symbol":"IBM"}}`, ""},
		{"corrupt timestamp", `{"overview":{"symbol":"IBM"}}`, "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, kv, _ := newTestCache(t)
			ctx := context.Background()

			require.NoError(t, kv.Set(ctx, "symbolData:IBM", tt.data, ""))
			if tt.stamp != "" {
				require.NoError(t, kv.Set(ctx, "symbolDataTimestamp:IBM", tt.stamp, ""))
			}

			_, ok := svc.GetDataset(ctx, "IBM")
			assert.False(t, ok)
			_, ok = svc.GetFreshDataset(ctx, "IBM")
			assert.False(t, ok)
		})
	}
}

func TestDatasetCache_RejectsInvalidData(t *testing.T) {
	svc, kv, _ := newTestCache(t)
	ctx := context.Background()

	bad := sampleData("IBM")
	bad.Analysis.QuickScanScore = 140
	assert.Error(t, svc.PutDataset(ctx, "IBM", bad))

	dup := sampleData("IBM")
	dup.IncomeStatements = append(dup.IncomeStatements, models.NewIncomeStatement(2023, 1, 1))
	assert.Error(t, svc.PutDataset(ctx, "IBM", dup))

	_, err := kv.Get(ctx, "symbolData:IBM")
	assert.Error(t, err, "nothing written")
}

func TestDatasetCache_ReplaceInvalidateList(t *testing.T) {
	svc, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.PutDataset(ctx, "MSFT", sampleData("MSFT")))
	require.NoError(t, svc.PutDataset(ctx, "IBM", sampleData("IBM")))

	clock.Advance(time.Hour)
	replacement := sampleData("IBM")
	replacement.Overview.Name = "Replaced"
	require.NoError(t, svc.PutDataset(ctx, "IBM", replacement))

	entry, ok := svc.GetDataset(ctx, "IBM")
	require.True(t, ok)
	assert.Equal(t, "Replaced", entry.Payload.Overview.Name)
	assert.Equal(t, time.Duration(0), entry.Age(clock.Now()))

	symbols, err := svc.ListCachedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM", "MSFT"}, symbols)

	require.NoError(t, svc.Invalidate(ctx, "ibm"))
	_, ok = svc.GetDataset(ctx, "IBM")
	assert.False(t, ok)
	require.NoError(t, svc.Invalidate(ctx, "IBM"), "invalidating twice is not an error")

	symbols, err = svc.ListCachedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, symbols)
}

func TestWithTTL(t *testing.T) {
	svc, _, clock := newTestCache(t)
	svc.WithTTL(time.Hour)
	assert.Equal(t, time.Hour, svc.TTL())

	captured := clock.Now()
	clock.Advance(59 * time.Minute)
	assert.True(t, svc.IsFresh(captured))
	clock.Advance(time.Minute)
	assert.False(t, svc.IsFresh(captured))

	svc.WithTTL(0)
	assert.Equal(t, time.Hour, svc.TTL(), "non-positive TTL is ignored")
}
