// Package avtest provides an in-process fake of the Alpha Vantage query
// endpoint for tests.
package avtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RateLimitNote is the body Alpha Vantage returns when the call budget is exhausted.
const RateLimitNote = `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute and 500 calls per day."}`

// Call records one request received by the fake.
type Call struct {
	Function  string
	Symbol    string
	Keywords  string
	APIKey    string
	UserAgent string
}

// Server answers Alpha Vantage queries from canned bodies keyed by function
// and symbol (or keywords for SYMBOL_SEARCH). Unregistered queries get "{}".
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]map[string]string
	statuses  map[string]int
	calls     []Call
}

// NewServer starts a fake closed automatically at the end of the test.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		responses: make(map[string]map[string]string),
		statuses:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers body for function and symbol (or search keywords).
func (s *Server) Handle(function, symbolOrKeywords, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responses[function] == nil {
		s.responses[function] = make(map[string]string)
	}
	s.responses[function][symbolOrKeywords] = body
}

// HandleJSON registers v encoded as JSON.
func (s *Server) HandleJSON(t testing.TB, function, symbolOrKeywords string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	s.Handle(function, symbolOrKeywords, string(data))
}

// FailWith makes every request for function answer with status.
func (s *Server) FailWith(function string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[function] = status
}

// Calls returns a copy of the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of requests received.
func (s *Server) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Functions returns the function of each recorded request in order.
func (s *Server) Functions() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Function
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	call := Call{
		Function:  q.Get("function"),
		Symbol:    q.Get("symbol"),
		Keywords:  q.Get("keywords"),
		APIKey:    q.Get("apikey"),
		UserAgent: r.UserAgent(),
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	status, failing := s.statuses[call.Function]
	key := call.Symbol
	if call.Function == "SYMBOL_SEARCH" {
		key = call.Keywords
	}
	body, ok := s.responses[call.Function][key]
	s.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		body = "{}"
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Report is a convenience for building annualReports entries.
type Report map[string]string

// Statement encodes an INCOME_STATEMENT / BALANCE_SHEET / CASH_FLOW payload.
func Statement(t testing.TB, symbol string, reports ...Report) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"symbol":           symbol,
		"annualReports":    reports,
		"quarterlyReports": []Report{},
	})
	if err != nil {
		t.Fatalf("failed to encode statement: %v", err)
	}
	return string(data)
}
