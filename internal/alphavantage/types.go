// Package alphavantage provides a client for the Alpha Vantage market-data API.
// This package centralizes all Alpha Vantage interactions for the application.
package alphavantage

import (
	"errors"
	"fmt"
	"time"
)

// Function is the value of the "function" query parameter selecting an endpoint.
type Function string

const (
	FunctionSymbolSearch    Function = "SYMBOL_SEARCH"
	FunctionOverview        Function = "OVERVIEW"
	FunctionGlobalQuote     Function = "GLOBAL_QUOTE"
	FunctionIncomeStatement Function = "INCOME_STATEMENT"
	FunctionBalanceSheet    Function = "BALANCE_SHEET"
	FunctionCashFlow        Function = "CASH_FLOW"
)

// ErrNoData is returned when the upstream answers with an empty object,
// which it does for unknown symbols.
var ErrNoData = errors.New("alpha vantage returned no data")

// ErrNoAPIKey is returned before any request when the client has no API key.
var ErrNoAPIKey = errors.New("alpha vantage API key not set")

// APIError represents an error from the Alpha Vantage API, either a non-200
// status or an "Error Message" body.
type APIError struct {
	StatusCode int
	Message    string
	Function   Function
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// RateLimitError represents a throttled response. Alpha Vantage signals this
// with HTTP 200 and a "Note" or "Information" body.
type RateLimitError struct {
	Message    string
	Function   Function
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Alpha Vantage rate limit exceeded on %s, retry after %v: %s", e.Function, e.RetryAfter, e.Message)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
