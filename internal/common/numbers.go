package common

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses an upstream numeric field. Alpha Vantage encodes every
// figure as a string and uses "None", "-" or "" for missing values; those, and
// anything else that is not a finite number, report ok=false.
func ParseNumber(s string) (value float64, ok bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "none", "null", "-", "N/A":
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NumberOrZero applies the parse-or-zero policy: unparseable fields become 0
// so a partial record can still be shown.
func NumberOrZero(s string) float64 {
	v, _ := ParseNumber(s)
	return v
}

// ParseFiscalYear extracts the leading 4-digit year from a period-end date
// such as "2023-12-31".
func ParseFiscalYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// FiscalYearOrZero returns the fiscal year or 0 when the date is unparseable.
func FiscalYearOrZero(date string) int {
	year, _ := ParseFiscalYear(date)
	return year
}

// Millions scales a provider amount (whole currency units) to millions.
func Millions(v float64) float64 {
	return v / 1e6
}
