package common

import (
	"testing"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input      string
		wantCode   string
		wantMarket string
		wantString string
		wantName   string
	}{
		{"IBM", "IBM", "", "IBM", "US"},
		{"ibm", "IBM", "", "IBM", "US"},
		{"  aapl  ", "AAPL", "", "AAPL", "US"},
		{"TSCO.LON", "TSCO", "LON", "TSCO.LON", "London"},
		{"shop.trt", "SHOP", "TRT", "SHOP.TRT", "Toronto"},
		{"BRK.B", "BRK.B", "", "BRK.B", "US"},
		{"", "", "", "", "US"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseSymbol(tt.input)

			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
			if result.Market != tt.wantMarket {
				t.Errorf("Market = %q, want %q", result.Market, tt.wantMarket)
			}
			if result.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", result.String(), tt.wantString)
			}
			if result.MarketName() != tt.wantName {
				t.Errorf("MarketName() = %q, want %q", result.MarketName(), tt.wantName)
			}
		})
	}
}

func TestIsReservedSymbol(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"TEST", true},
		{"test", true},
		{"Test", true},
		{" test ", true},
		{"TESTS", false},
		{"IBM", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsReservedSymbol(tt.input); got != tt.want {
				t.Errorf("IsReservedSymbol(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
