package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the query endpoint for the Alpha Vantage API.
	DefaultBaseURL = "https://www.alphavantage.co/query"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the free-tier rate limit (requests per minute).
	DefaultRateLimit = 5
)

// Client is an Alpha Vantage API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	userAgent  string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit in requests per minute.
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = newLimiter(requestsPerMinute)
		}
	}
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// NewClient creates a new Alpha Vantage API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: newLimiter(DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithKey returns a copy of the client using apiKey. The copy shares the
// HTTP client and rate limiter, so the budget is global to the process.
func (c *Client) WithKey(apiKey string) *Client {
	clone := *c
	clone.apiKey = apiKey
	return &clone
}

// HasKey reports whether an API key is set.
func (c *Client) HasKey() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// getRaw performs a GET request for function and returns the body after
// screening out throttling and error envelopes.
func (c *Client) getRaw(ctx context.Context, function Function, params url.Values) ([]byte, error) {
	if !c.HasKey() {
		return nil, fmt.Errorf("%s: %w", function, ErrNoAPIKey)
	}

	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", function, err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", string(function))
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	// Log request (never the key)
	if c.logger != nil {
		c.logger.Debug().
			Str("function", string(function)).
			Str("symbol", params.Get("symbol")).
			Msg("Alpha Vantage API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Function:   function,
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "unexpected non-object response",
			Function:   function,
		}
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	switch {
	case env.Note != "":
		return nil, &RateLimitError{Message: env.Note, Function: function, RetryAfter: time.Minute}
	case env.Information != "":
		return nil, &RateLimitError{Message: env.Information, Function: function, RetryAfter: time.Minute}
	case env.ErrorMessage != "":
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.ErrorMessage, Function: function}
	}

	return trimmed, nil
}

// get performs a GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, function Function, params url.Values, result interface{}) error {
	body, err := c.getRaw(ctx, function, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", function, err)
	}
	return nil
}

func symbolParams(symbol string) url.Values {
	params := url.Values{}
	params.Set("symbol", symbol)
	return params
}

// SearchSymbol retrieves best matches for keywords.
func (c *Client) SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	params := url.Values{}
	params.Set("keywords", keywords)

	var result SearchResponse
	if err := c.get(ctx, FunctionSymbolSearch, params, &result); err != nil {
		return nil, err
	}
	return result.BestMatches, nil
}

// GetOverview retrieves the company overview. An empty object, which the
// upstream returns for unknown symbols, yields ErrNoData.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*Overview, error) {
	body, err := c.getRaw(ctx, FunctionOverview, symbolParams(symbol))
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", FunctionOverview, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("overview for %s: %w", symbol, ErrNoData)
	}

	var result Overview
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", FunctionOverview, err)
	}
	return &result, nil
}

// GetGlobalQuote retrieves the latest quote. Unknown symbols produce a zero quote.
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	var result QuoteResponse
	if err := c.get(ctx, FunctionGlobalQuote, symbolParams(symbol), &result); err != nil {
		return nil, err
	}
	return &result.GlobalQuote, nil
}

// GetIncomeStatement retrieves annual income statements, newest first.
func (c *Client) GetIncomeStatement(ctx context.Context, symbol string) (*StatementResponse, error) {
	return c.getStatement(ctx, FunctionIncomeStatement, symbol)
}

// GetBalanceSheet retrieves annual balance sheets, newest first.
func (c *Client) GetBalanceSheet(ctx context.Context, symbol string) (*StatementResponse, error) {
	return c.getStatement(ctx, FunctionBalanceSheet, symbol)
}

// GetCashFlow retrieves annual cash-flow statements, newest first.
func (c *Client) GetCashFlow(ctx context.Context, symbol string) (*StatementResponse, error) {
	return c.getStatement(ctx, FunctionCashFlow, symbol)
}

func (c *Client) getStatement(ctx context.Context, function Function, symbol string) (*StatementResponse, error) {
	var result StatementResponse
	if err := c.get(ctx, function, symbolParams(symbol), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
