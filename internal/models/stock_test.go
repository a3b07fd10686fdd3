package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncomeStatement(t *testing.T) {
	s := NewIncomeStatement(2024, 200, 50)
	assert.Equal(t, 25.0, s.ProfitMargin)

	zero := NewIncomeStatement(2024, 0, 50)
	assert.Equal(t, 0.0, zero.ProfitMargin)
}

func TestNewBalanceSheet(t *testing.T) {
	s := NewBalanceSheet(2024, 400, 100)
	assert.Equal(t, 0.25, s.DebtRatio)

	zero := NewBalanceSheet(2024, 0, 100)
	assert.Equal(t, 0.0, zero.DebtRatio)
}

func TestNewCashFlow(t *testing.T) {
	income := []IncomeStatement{
		NewIncomeStatement(2023, 100, 10),
		NewIncomeStatement(2024, 200, 20),
		NewIncomeStatement(2022, 0, 5),
	}

	tests := []struct {
		name     string
		year     int
		fcf      float64
		expected float64
	}{
		{"matched year", 2024, 50, 25},
		{"other matched year", 2023, 10, 10},
		{"unmatched year", 2019, 10, 0},
		{"zero revenue", 2022, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := NewCashFlow(tt.year, tt.fcf, income)
			assert.Equal(t, tt.expected, cf.FCFSalesRatio)
			assert.Equal(t, tt.fcf, cf.FreeCashFlow)
		})
	}
}

func validStock() *StockData {
	return &StockData{
		Overview: CompanyOverview{Symbol: "IBM", Name: "IBM", CurrentPrice: 10},
		IncomeStatements: []IncomeStatement{
			NewIncomeStatement(2024, 100, 10),
			NewIncomeStatement(2023, 90, 9),
		},
		Analysis: AnalysisScores{QuickScanScore: 50, ReturnPotentialScore: 65, ValuationIndicator: ValuationFairlyValued},
	}
}

func TestStockData_Validate(t *testing.T) {
	require.NoError(t, validStock().Validate())

	tests := []struct {
		name   string
		mutate func(d *StockData)
	}{
		{"missing symbol", func(d *StockData) { d.Overview.Symbol = "" }},
		{"negative price", func(d *StockData) { d.Overview.CurrentPrice = -1 }},
		{"score above 100", func(d *StockData) { d.Analysis.QuickScanScore = 101 }},
		{"unknown indicator", func(d *StockData) { d.Analysis.ValuationIndicator = "Cheap" }},
		{"duplicate year", func(d *StockData) {
			d.IncomeStatements = append(d.IncomeStatements, NewIncomeStatement(2024, 1, 1))
		}},
		{"too many reports", func(d *StockData) {
			for y := 2010; y < 2015; y++ {
				d.BalanceSheets = append(d.BalanceSheets, NewBalanceSheet(y, 1, 1))
			}
			d.BalanceSheets = append(d.BalanceSheets, NewBalanceSheet(2016, 1, 1))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validStock()
			tt.mutate(d)
			assert.Error(t, d.Validate())
		})
	}

	var nilData *StockData
	assert.Error(t, nilData.Validate())
}

func TestResult(t *testing.T) {
	ok := Ok(42)
	assert.True(t, ok.IsOK())
	assert.Equal(t, 42, ok.Value)

	empty := Empty[int]("nothing")
	assert.False(t, empty.IsOK())
	assert.Equal(t, ResultEmpty, empty.Status)
	assert.Equal(t, "nothing", empty.Reason)

	failed := Failed[int]("boom")
	assert.Equal(t, ResultFailed, failed.Status)
}

func TestCacheEntry_Age(t *testing.T) {
	captured := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entry := CacheEntry[string]{Payload: "x", CapturedAt: captured}
	assert.Equal(t, 90*time.Minute, entry.Age(captured.Add(90*time.Minute)))
}
