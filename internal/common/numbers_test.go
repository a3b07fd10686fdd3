package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"383285000000", 383285000000, true},
		{"-10959000000", -10959000000, true},
		{"15.27", 15.27, true},
		{"  42  ", 42, true},
		{"1e6", 1000000, true},
		{"", 0, false},
		{"None", 0, false},
		{"null", 0, false},
		{"-", 0, false},
		{"N/A", 0, false},
		{"12abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, NumberOrZero(tt.input))
		})
	}
}

func TestParseFiscalYear(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"2023-12-31", 2023, true},
		{"2019-09-28", 2019, true},
		{"2021", 2021, true},
		{"", 0, false},
		{"23-12", 0, false},
		{"abcd-12-31", 0, false},
		{"0000-01-01", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFiscalYear(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, FiscalYearOrZero(tt.input))
		})
	}
}

func TestMillions(t *testing.T) {
	assert.Equal(t, 383.285, Millions(383285000))
	assert.Equal(t, 0.0, Millions(0))
}
