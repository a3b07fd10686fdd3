package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stockscan/internal/alphavantage/avtest"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/ternarybob/stockscan/internal/services/stockdata"
)

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	t.Setenv("STOCKSCAN_ALPHAVANTAGE_API_KEY", "")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "")

	cfg := common.NewDefaultConfig()
	cfg.Storage.Type = "memory"
	cfg.Refresh.Enabled = false
	cfg.AlphaVantage.RateLimit = 600
	if baseURL != "" {
		cfg.AlphaVantage.BaseURL = baseURL
	}

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_WiresServices(t *testing.T) {
	a := newTestApp(t, "")

	assert.NotNil(t, a.StorageManager)
	assert.NotNil(t, a.Credentials)
	assert.NotNil(t, a.Gateway)
	assert.NotNil(t, a.Cache)
	assert.NotNil(t, a.Loader)
	assert.NotNil(t, a.Refresher)
	assert.Equal(t, common.DefaultFreshnessWindow, a.Cache.TTL())
}

func TestNew_UnsupportedStorage(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Type = "sqlite"

	_, err := New(cfg, arbor.NewLogger())
	require.Error(t, err)
}

func TestApp_ReservedSymbolThenCache(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	first := a.Loader.Load(ctx, "test")
	require.NoError(t, first.Err)
	assert.Equal(t, stockdata.SourceUpstream, first.Source)
	assert.Equal(t, 79, first.Data.Analysis.QuickScanScore)

	second := a.Loader.Load(ctx, "TEST")
	require.NoError(t, second.Err)
	assert.Equal(t, stockdata.SourceCache, second.Source)

	symbols, err := a.Cache.ListCachedSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEST"}, symbols)
}

func TestApp_NoCredential(t *testing.T) {
	server := avtest.NewServer(t)
	a := newTestApp(t, server.URL)

	st := a.Loader.Load(context.Background(), "IBM")
	require.ErrorIs(t, st.Err, interfaces.ErrNoCredential)
	assert.Equal(t, 0, server.CallCount())
}

func TestApp_StoredKeyReachesUpstream(t *testing.T) {
	server := avtest.NewServer(t)
	server.Handle("OVERVIEW", "IBM", `{"Symbol": "IBM", "Name": "International Business Machines"}`)
	server.Handle("GLOBAL_QUOTE", "IBM", `{"Global Quote": {"01. symbol": "IBM", "05. price": "187.42"}}`)
	server.Handle("INCOME_STATEMENT", "IBM", avtest.Statement(t, "IBM",
		avtest.Report{"fiscalDateEnding": "2024-12-31", "totalRevenue": "2000000000", "netIncome": "200000000"},
		avtest.Report{"fiscalDateEnding": "2023-12-31", "totalRevenue": "1000000000", "netIncome": "100000000"},
	))
	server.Handle("BALANCE_SHEET", "IBM", avtest.Statement(t, "IBM"))
	server.Handle("CASH_FLOW", "IBM", avtest.Statement(t, "IBM"))

	a := newTestApp(t, server.URL)
	ctx := context.Background()
	require.NoError(t, a.Credentials.SetAPIKey(ctx, "stored-key"))

	st := a.Loader.Load(ctx, "ibm")
	require.NoError(t, st.Err)
	require.NotNil(t, st.Data)
	assert.Equal(t, "IBM", st.Data.Overview.Symbol)
	assert.Equal(t, 187.42, st.Data.Overview.CurrentPrice)
	assert.Len(t, st.Data.IncomeStatements, 2)

	calls := server.Calls()
	require.Len(t, calls, 5)
	for _, c := range calls {
		assert.Equal(t, "stored-key", c.APIKey)
	}
}

func TestApp_RepeatedFiscalYearsAreCached(t *testing.T) {
	server := avtest.NewServer(t)
	server.Handle("OVERVIEW", "IBM", `{"Symbol": "IBM", "Name": "International Business Machines", "PERatio": 22.5}`)
	server.Handle("GLOBAL_QUOTE", "IBM", `{"Global Quote": {"01. symbol": "IBM", "05. price": "187.42"}}`)
	server.Handle("INCOME_STATEMENT", "IBM", avtest.Statement(t, "IBM",
		avtest.Report{"fiscalDateEnding": "None", "totalRevenue": "2000000000", "netIncome": "200000000"},
		avtest.Report{"fiscalDateEnding": "", "totalRevenue": "1000000000", "netIncome": "100000000"},
	))
	server.Handle("BALANCE_SHEET", "IBM", avtest.Statement(t, "IBM"))
	server.Handle("CASH_FLOW", "IBM", avtest.Statement(t, "IBM"))

	a := newTestApp(t, server.URL)
	ctx := context.Background()
	require.NoError(t, a.Credentials.SetAPIKey(ctx, "key"))

	first := a.Loader.Load(ctx, "IBM")
	require.NoError(t, first.Err)
	require.NotNil(t, first.Data)
	assert.Equal(t, 22.5, first.Data.Valuation.PERatio)
	require.Len(t, first.Data.IncomeStatements, 1)

	cached, ok := a.Cache.GetFreshDataset(ctx, "IBM")
	require.True(t, ok, "record must be written to the dataset cache")
	assert.Equal(t, "IBM", cached.Overview.Symbol)

	second := a.Loader.Load(ctx, "IBM")
	require.NoError(t, second.Err)
	assert.Equal(t, stockdata.SourceCache, second.Source)
	assert.Equal(t, 5, server.CallCount())
}

func TestApp_StartRefresherDisabled(t *testing.T) {
	a := newTestApp(t, "")
	require.NoError(t, a.StartRefresher(context.Background()))
}
