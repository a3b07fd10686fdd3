// Package gateway issues the Alpha Vantage queries for a symbol and assembles
// the normalized multi-year record.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/alphavantage"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/interfaces"
	"github.com/ternarybob/stockscan/internal/models"
)

const (
	reasonBlankQuery   = "blank query"
	reasonBlankSymbol  = "blank symbol"
	reasonNoCredential = "no API key configured"
	reasonNotFound     = "no data returned (possible rate limit or invalid symbol)"
)

// Service implements interfaces.StockGateway over the Alpha Vantage client.
type Service struct {
	client      *alphavantage.Client
	credentials interfaces.CredentialStore
	logger      arbor.ILogger
	maxReports  int
}

// NewService creates a gateway. The client's own key is ignored; the key is
// read from credentials on every call.
func NewService(client *alphavantage.Client, credentials interfaces.CredentialStore, logger arbor.ILogger) *Service {
	return &Service{
		client:      client,
		credentials: credentials,
		logger:      logger,
		maxReports:  models.MaxAnnualReports,
	}
}

// WithMaxReports limits how many fiscal years are kept per statement (1-5).
func (s *Service) WithMaxReports(n int) *Service {
	if n > 0 && n <= models.MaxAnnualReports {
		s.maxReports = n
	}
	return s
}

// SearchSymbol looks up symbols matching keyword. It never returns an error:
// a blank keyword or a missing key yield an empty result without a network
// call, and upstream failures yield a failed result.
func (s *Service) SearchSymbol(ctx context.Context, keyword string) models.Result[[]models.SearchResult] {
	if strings.TrimSpace(keyword) == "" {
		return models.Empty[[]models.SearchResult](reasonBlankQuery)
	}

	key, err := s.credentials.APIKey(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("No API key configured, symbol search skipped")
		return models.Empty[[]models.SearchResult](reasonNoCredential)
	}

	matches, err := s.client.WithKey(key).SearchSymbol(ctx, keyword)
	if err != nil {
		if alphavantage.IsRateLimited(err) {
			s.logger.Warn().Err(err).Str("query", keyword).Msg("Symbol search rate-limited")
			return models.Empty[[]models.SearchResult](err.Error())
		}
		s.logger.Error().Err(err).Str("query", keyword).Msg("Symbol search failed")
		return models.Failed[[]models.SearchResult](err.Error())
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.SearchResult{
			Symbol:     m.Symbol,
			Name:       m.Name,
			Type:       m.Type,
			Region:     m.Region,
			Currency:   m.Currency,
			MatchScore: m.MatchScore,
		})
	}

	s.logger.Debug().Str("query", keyword).Int("matches", len(results)).Msg("Symbol search completed")
	return models.Ok(results)
}

// SearchSymbols is SearchSymbol reduced to the result list; anything other
// than a successful search yields an empty slice.
func (s *Service) SearchSymbols(ctx context.Context, keyword string) []models.SearchResult {
	result := s.SearchSymbol(ctx, keyword)
	if !result.IsOK() || result.Value == nil {
		return []models.SearchResult{}
	}
	return result.Value
}

// FetchFullStockData retrieves and normalizes the full record for symbol.
//
// The reserved TEST symbol returns the fixture without network access. A
// missing key returns interfaces.ErrNoCredential, the only error propagated.
// The overview is requested first and an empty or throttled answer stops the
// fetch before the other four queries. Every other failure, including a
// panic, is logged and reported through the result status.
func (s *Service) FetchFullStockData(ctx context.Context, symbol string) (result models.Result[*models.StockData], err error) {
	sym := common.NormalizeSymbol(symbol)
	if sym == "" {
		return models.Empty[*models.StockData](reasonBlankSymbol), nil
	}

	if common.IsReservedSymbol(sym) {
		s.logger.Debug().Str("symbol", sym).Msg("Serving built-in fixture for reserved symbol")
		return models.Ok(FixtureStockData()), nil
	}

	key, err := s.credentials.APIKey(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("Cannot fetch stock data without API key")
		return models.Failed[*models.StockData](reasonNoCredential), err
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("symbol", sym).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while fetching stock data")
			result = models.Failed[*models.StockData](fmt.Sprintf("unexpected failure: %v", r))
			err = nil
		}
	}()

	return s.fetch(ctx, s.client.WithKey(key), sym), nil
}

// fetch issues the five queries sequentially.
func (s *Service) fetch(ctx context.Context, client *alphavantage.Client, symbol string) models.Result[*models.StockData] {
	var raw rawStatements
	var err error

	raw.overview, err = client.GetOverview(ctx, symbol)
	if err != nil {
		return s.abort(symbol, alphavantage.FunctionOverview, err)
	}

	raw.quote, err = client.GetGlobalQuote(ctx, symbol)
	if err != nil {
		return s.abort(symbol, alphavantage.FunctionGlobalQuote, err)
	}

	raw.income, err = client.GetIncomeStatement(ctx, symbol)
	if err != nil {
		return s.abort(symbol, alphavantage.FunctionIncomeStatement, err)
	}

	raw.balance, err = client.GetBalanceSheet(ctx, symbol)
	if err != nil {
		return s.abort(symbol, alphavantage.FunctionBalanceSheet, err)
	}

	raw.cash, err = client.GetCashFlow(ctx, symbol)
	if err != nil {
		return s.abort(symbol, alphavantage.FunctionCashFlow, err)
	}

	data := assemble(symbol, raw, s.maxReports)

	s.logger.Info().
		Str("symbol", symbol).
		Int("income_years", len(data.IncomeStatements)).
		Int("balance_years", len(data.BalanceSheets)).
		Int("cashflow_years", len(data.CashFlows)).
		Int("quick_scan_score", data.Analysis.QuickScanScore).
		Msg("Fetched stock data")

	return models.Ok(data)
}

// abort classifies a query failure. Unknown symbols and throttling are "no
// data"; anything else is a failure.
func (s *Service) abort(symbol string, function alphavantage.Function, err error) models.Result[*models.StockData] {
	if errors.Is(err, alphavantage.ErrNoData) || alphavantage.IsRateLimited(err) {
		s.logger.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("function", string(function)).
			Msg("Data not available or rate-limited, remaining queries skipped")
		return models.Empty[*models.StockData](reasonNotFound)
	}

	s.logger.Error().
		Err(err).
		Str("symbol", symbol).
		Str("function", string(function)).
		Msg("Failed to fetch stock data")
	return models.Failed[*models.StockData](fmt.Sprintf("%s: %v", function, err))
}
