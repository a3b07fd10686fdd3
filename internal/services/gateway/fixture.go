package gateway

import (
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/models"
	"github.com/ternarybob/stockscan/internal/services/scoring"
)

// FixtureStockData returns the built-in demonstration record served for the
// reserved TEST symbol. Its Quick Scan Score is 79 (19 of 24 intervals).
func FixtureStockData() *models.StockData {
	income := []models.IncomeStatement{
		models.NewIncomeStatement(2019, 500, 40),
		models.NewIncomeStatement(2020, 550, 45),
		models.NewIncomeStatement(2021, 600, 60),
		models.NewIncomeStatement(2022, 700, 80),
		models.NewIncomeStatement(2023, 800, 100),
	}

	balance := []models.BalanceSheet{
		models.NewBalanceSheet(2019, 2000, 800),
		models.NewBalanceSheet(2020, 2200, 900),
		models.NewBalanceSheet(2021, 2500, 1000),
		models.NewBalanceSheet(2022, 2700, 1000),
		models.NewBalanceSheet(2023, 3000, 1100),
	}

	cash := []models.CashFlow{
		models.NewCashFlow(2019, 50, income),
		models.NewCashFlow(2020, 60, income),
		models.NewCashFlow(2021, 70, income),
		models.NewCashFlow(2022, 80, income),
		models.NewCashFlow(2023, 90, income),
	}

	return &models.StockData{
		Overview: models.CompanyOverview{
			Symbol:       common.ReservedTestSymbol,
			Name:         "Mock Testing Inc.",
			CurrentPrice: 123.45,
		},
		IncomeStatements: income,
		BalanceSheets:    balance,
		CashFlows:        cash,
		Valuation: models.ValuationMetrics{
			DividendPerShare: 1.25,
			SharesIssued:     1_000_000,
			PERatio:          15,
		},
		Analysis: models.AnalysisScores{
			QuickScanScore:       scoring.CalculateQuickScanScore(income, balance, cash),
			ReturnPotentialScore: placeholderReturnPotential,
			MinReturn3Y:          5,
			AvgReturn3Y:          10,
			MaxReturn3Y:          20,
			ValuationIndicator:   placeholderValuation,
		},
	}
}
