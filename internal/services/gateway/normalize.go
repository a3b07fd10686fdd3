package gateway

import (
	"github.com/ternarybob/stockscan/internal/alphavantage"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/models"
	"github.com/ternarybob/stockscan/internal/services/scoring"
)

const (
	placeholderReturnPotential = 65
	placeholderValuation       = models.ValuationFairlyValued
)

// firstReports keeps the first n reports. Upstream orders them newest first,
// so this retains the n most recent fiscal years.
func firstReports(reports []alphavantage.AnnualReport, n int) []alphavantage.AnnualReport {
	if n <= 0 || n > models.MaxAnnualReports {
		n = models.MaxAnnualReports
	}
	if len(reports) > n {
		return reports[:n]
	}
	return reports
}

// distinctYears drops reports whose fiscal year repeats an earlier report,
// keeping the first (newest). Unparseable dates all count as year 0.
func distinctYears(reports []alphavantage.AnnualReport) []alphavantage.AnnualReport {
	seen := make(map[int]struct{}, len(reports))
	out := make([]alphavantage.AnnualReport, 0, len(reports))
	for _, r := range reports {
		year := common.FiscalYearOrZero(r.FiscalDateEnding)
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		out = append(out, r)
	}
	return out
}

// normalizeIncome scales revenue and net income to millions and derives the margin.
func normalizeIncome(reports []alphavantage.AnnualReport) []models.IncomeStatement {
	out := make([]models.IncomeStatement, 0, len(reports))
	for _, r := range reports {
		out = append(out, models.NewIncomeStatement(
			common.FiscalYearOrZero(r.FiscalDateEnding),
			common.Millions(common.NumberOrZero(r.TotalRevenue.String())),
			common.Millions(common.NumberOrZero(r.NetIncome.String())),
		))
	}
	return out
}

// normalizeBalance scales assets and liabilities to millions and derives the debt ratio.
func normalizeBalance(reports []alphavantage.AnnualReport) []models.BalanceSheet {
	out := make([]models.BalanceSheet, 0, len(reports))
	for _, r := range reports {
		out = append(out, models.NewBalanceSheet(
			common.FiscalYearOrZero(r.FiscalDateEnding),
			common.Millions(common.NumberOrZero(r.TotalAssets.String())),
			common.Millions(common.NumberOrZero(r.TotalLiabilities.String())),
		))
	}
	return out
}

// normalizeCashFlow computes free cash flow (operating cash flow minus capital
// expenditures, in millions) and its ratio to same-year revenue.
func normalizeCashFlow(reports []alphavantage.AnnualReport, income []models.IncomeStatement) []models.CashFlow {
	out := make([]models.CashFlow, 0, len(reports))
	for _, r := range reports {
		operating := common.NumberOrZero(r.OperatingCashflow.String())
		capex := common.NumberOrZero(r.CapitalExpenditures.String())
		out = append(out, models.NewCashFlow(
			common.FiscalYearOrZero(r.FiscalDateEnding),
			common.Millions(operating-capex),
			income,
		))
	}
	return out
}

// rawStatements are the upstream payloads for one symbol.
type rawStatements struct {
	overview *alphavantage.Overview
	quote    *alphavantage.GlobalQuote
	income   *alphavantage.StatementResponse
	balance  *alphavantage.StatementResponse
	cash     *alphavantage.StatementResponse
}

func annualReports(resp *alphavantage.StatementResponse) []alphavantage.AnnualReport {
	if resp == nil {
		return nil
	}
	return resp.AnnualReports
}

// assemble builds the aggregate record. symbol must already be normalized.
func assemble(symbol string, raw rawStatements, maxReports int) *models.StockData {
	income := normalizeIncome(firstReports(distinctYears(annualReports(raw.income)), maxReports))
	balance := normalizeBalance(firstReports(distinctYears(annualReports(raw.balance)), maxReports))
	cash := normalizeCashFlow(firstReports(distinctYears(annualReports(raw.cash)), maxReports), income)

	name := symbol
	var valuation models.ValuationMetrics
	if raw.overview != nil {
		if raw.overview.Name != "" {
			name = raw.overview.Name
		}
		valuation = models.ValuationMetrics{
			DividendPerShare: common.NumberOrZero(raw.overview.DividendPerShare.String()),
			SharesIssued:     common.NumberOrZero(raw.overview.SharesOutstanding.String()),
			PERatio:          common.NumberOrZero(raw.overview.PERatio.String()),
		}
	}

	price := 0.0
	if raw.quote != nil {
		price = common.NumberOrZero(raw.quote.Price.String())
	}

	return &models.StockData{
		Overview: models.CompanyOverview{
			Symbol:       symbol,
			Name:         name,
			CurrentPrice: price,
		},
		IncomeStatements: income,
		BalanceSheets:    balance,
		CashFlows:        cash,
		Valuation:        valuation,
		Analysis: models.AnalysisScores{
			QuickScanScore:       scoring.CalculateQuickScanScore(income, balance, cash),
			ReturnPotentialScore: placeholderReturnPotential,
			ValuationIndicator:   placeholderValuation,
		},
	}
}
