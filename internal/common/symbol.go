package common

import (
	"strings"
)

// ReservedTestSymbol resolves to the built-in demonstration fixture and never
// touches the network. Matching is case-insensitive.
const ReservedTestSymbol = "TEST"

// Symbol represents a parsed Alpha Vantage ticker.
// Non-US listings carry a market suffix (e.g. "TSCO.LON", "SHOP.TRT").
type Symbol struct {
	// Code is the ticker code (e.g. "TSCO")
	Code string
	// Market is the upstream market suffix, empty for US listings
	Market string
	// Raw is the original input
	Raw string
}

// KnownMarketSuffixes are the exchange suffixes Alpha Vantage appends to non-US tickers.
var KnownMarketSuffixes = map[string]string{
	"LON": "London",
	"TRT": "Toronto",
	"TRV": "Toronto Venture",
	"DEX": "XETRA",
	"FRK": "Frankfurt",
	"BSE": "Bombay",
	"SHH": "Shanghai",
	"SHZ": "Shenzhen",
	"AMS": "Amsterdam",
	"PAR": "Paris",
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsReservedSymbol reports whether symbol is the demonstration fixture symbol.
func IsReservedSymbol(symbol string) bool {
	return NormalizeSymbol(symbol) == ReservedTestSymbol
}

// ParseSymbol parses a ticker, splitting a known market suffix.
//   - "ibm"      -> Code="IBM"
//   - "TSCO.LON" -> Code="TSCO", Market="LON"
//   - "BRK.B"    -> Code="BRK.B" (share class, not a market)
func ParseSymbol(raw string) Symbol {
	normalized := NormalizeSymbol(raw)
	if normalized == "" {
		return Symbol{}
	}

	if idx := strings.LastIndex(normalized, "."); idx > 0 {
		suffix := normalized[idx+1:]
		if _, ok := KnownMarketSuffixes[suffix]; ok {
			return Symbol{Code: normalized[:idx], Market: suffix, Raw: raw}
		}
	}

	return Symbol{Code: normalized, Raw: raw}
}

// String returns the upstream form of the symbol.
func (s Symbol) String() string {
	if s.Market == "" {
		return s.Code
	}
	return s.Code + "." + s.Market
}

// MarketName returns the exchange name for the market suffix ("US" when none).
func (s Symbol) MarketName() string {
	if s.Market == "" {
		return "US"
	}
	return KnownMarketSuffixes[s.Market]
}
