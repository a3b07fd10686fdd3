package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/stockscan/internal/alphavantage/avtest"
	"github.com/ternarybob/stockscan/internal/app"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/models"
)

func newCLIApp(t *testing.T, baseURL string) *app.App {
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

	a, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func execute(t *testing.T, a *app.App, args ...string) (string, string, int) {
	t.Helper()
	cmd, ok := findCommand(args[0])
	require.True(t, ok, "unknown command %s", args[0])

	var out, errOut bytes.Buffer
	code := run(context.Background(), cmd, a, args[1:], &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestFetch_Formats(t *testing.T) {
	a := newCLIApp(t, "")

	t.Run("json", func(t *testing.T) {
		out, _, code := execute(t, a, "fetch", "-o", "json", "test")
		require.Equal(t, 0, code)

		var data models.StockData
		require.NoError(t, json.Unmarshal([]byte(out), &data))
		assert.Equal(t, "TEST", data.Overview.Symbol)
		assert.Equal(t, 79, data.Analysis.QuickScanScore)
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, code := execute(t, a, "fetch", "-o", "yaml", "TEST")
		require.Equal(t, 0, code)

		var data models.StockData
		require.NoError(t, yaml.Unmarshal([]byte(out), &data))
		assert.Equal(t, "Mock Testing Inc.", data.Overview.Name)
		assert.Len(t, data.IncomeStatements, 5)
	})

	t.Run("text", func(t *testing.T) {
		out, _, code := execute(t, a, "fetch", "TEST")
		require.Equal(t, 0, code)
		assert.Contains(t, out, "Mock Testing Inc.")
		assert.Contains(t, out, "Market")
		assert.Contains(t, out, "Quick Scan Score")
		assert.Contains(t, out, "79/100")
		assert.Contains(t, out, "Fairly Valued")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, errOut, code := execute(t, a, "fetch", "-o", "xml", "TEST")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "xml")
	})
}

func TestFetch_NoCredential(t *testing.T) {
	server := avtest.NewServer(t)
	a := newCLIApp(t, server.URL)

	_, errOut, code := execute(t, a, "fetch", "IBM")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error:")
	assert.Equal(t, 0, server.CallCount())
}

func TestFetch_RequiresSymbol(t *testing.T) {
	a := newCLIApp(t, "")
	_, _, code := execute(t, a, "fetch")
	assert.Equal(t, 2, code)
}

func TestKey_SetShowClear(t *testing.T) {
	a := newCLIApp(t, "")

	out, _, code := execute(t, a, "key", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No API key configured")

	_, _, code = execute(t, a, "key", "set", "ABCDEFGH1234")
	require.Equal(t, 0, code)

	out, _, code = execute(t, a, "key", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "********1234")
	assert.Contains(t, out, "store")
	assert.NotContains(t, out, "ABCDEFGH")

	_, _, code = execute(t, a, "key", "clear")
	require.Equal(t, 0, code)

	out, _, _ = execute(t, a, "key", "show")
	assert.Contains(t, out, "No API key configured")
}

func TestKey_UnknownSubcommand(t *testing.T) {
	a := newCLIApp(t, "")
	_, _, code := execute(t, a, "key", "rotate")
	assert.Equal(t, 2, code)
}

func TestSearch_UsesCache(t *testing.T) {
	server := avtest.NewServer(t)
	server.Handle("SYMBOL_SEARCH", "micro soft", `{"bestMatches": [{"1. symbol": "MSFT", "2. name": "Microsoft Corporation", "4. region": "United States", "8. currency": "USD"}]}`)
	a := newCLIApp(t, server.URL)
	require.NoError(t, a.Credentials.SetAPIKey(context.Background(), "key"))

	out, _, code := execute(t, a, "search", "micro", "soft")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "MSFT")
	assert.Contains(t, out, "Microsoft Corporation")

	out, _, code = execute(t, a, "search", "-o", "json", "micro", "soft")
	require.Equal(t, 0, code)
	var results []models.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "MSFT", results[0].Symbol)

	assert.Equal(t, 1, server.CallCount())
}

func TestSearch_RequiresKeywords(t *testing.T) {
	a := newCLIApp(t, "")
	_, _, code := execute(t, a, "search", "   ")
	assert.Equal(t, 2, code)
}

func TestCache_ListAndInvalidate(t *testing.T) {
	a := newCLIApp(t, "")

	out, _, code := execute(t, a, "cache", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Dataset cache is empty")

	_, _, code = execute(t, a, "fetch", "-o", "json", "TEST")
	require.Equal(t, 0, code)

	out, _, code = execute(t, a, "cache", "list")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "TEST")
	assert.Contains(t, lines[1], "fresh")

	out, _, code = execute(t, a, "cache", "invalidate", "test")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Invalidated TEST")

	out, _, _ = execute(t, a, "cache", "list")
	assert.Contains(t, out, "Dataset cache is empty")

	out, _, code = execute(t, a, "cache", "clear-search")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Search cache cleared")

	out, _, code = execute(t, a, "cache", "compact")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Storage compacted")
}

func TestReset(t *testing.T) {
	a := newCLIApp(t, "")
	ctx := context.Background()

	_, _, code := execute(t, a, "key", "set", "ABCDEFGH1234")
	require.Equal(t, 0, code)
	_, _, code = execute(t, a, "fetch", "-o", "json", "TEST")
	require.Equal(t, 0, code)

	_, errOut, code := execute(t, a, "reset")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "-yes")

	out, _, code := execute(t, a, "reset", "-yes")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "All stored data removed")

	out, _, _ = execute(t, a, "key", "show")
	assert.Contains(t, out, "No API key configured")

	symbols, err := a.Cache.ListCachedSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}
