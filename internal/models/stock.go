// Package models defines the normalized financial records produced by the
// gateway and persisted by the cache.
package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxAnnualReports is the number of most-recent fiscal years retained per statement type.
const MaxAnnualReports = 5

// ValuationIndicator is the placeholder valuation verdict shown with the analysis.
type ValuationIndicator string

const (
	ValuationOvervalued   ValuationIndicator = "Overvalued"
	ValuationUndervalued  ValuationIndicator = "Undervalued"
	ValuationFairlyValued ValuationIndicator = "Fairly Valued"
)

// CompanyOverview identifies the company and its current price.
type CompanyOverview struct {
	Symbol       string  `json:"symbol" yaml:"symbol" validate:"required"`
	Name         string  `json:"name" yaml:"name"`
	CurrentPrice float64 `json:"currentPrice" yaml:"currentPrice" validate:"gte=0"`
}

// IncomeStatement is one fiscal year of income data, in millions.
type IncomeStatement struct {
	Year         int     `json:"year" yaml:"year"`
	TotalRevenue float64 `json:"totalRevenue" yaml:"totalRevenue"`
	NetIncome    float64 `json:"netIncome" yaml:"netIncome"`
	ProfitMargin float64 `json:"profitMargin" yaml:"profitMargin"` // percent
}

// NewIncomeStatement derives the profit margin from revenue and net income.
func NewIncomeStatement(year int, totalRevenue, netIncome float64) IncomeStatement {
	margin := 0.0
	if totalRevenue != 0 {
		margin = netIncome / totalRevenue * 100
	}
	return IncomeStatement{
		Year:         year,
		TotalRevenue: totalRevenue,
		NetIncome:    netIncome,
		ProfitMargin: margin,
	}
}

// BalanceSheet is one fiscal year of balance data, in millions.
type BalanceSheet struct {
	Year             int     `json:"year" yaml:"year"`
	TotalAssets      float64 `json:"totalAssets" yaml:"totalAssets"`
	TotalLiabilities float64 `json:"totalLiabilities" yaml:"totalLiabilities"`
	DebtRatio        float64 `json:"debtRatio" yaml:"debtRatio"` // liabilities / assets
}

// NewBalanceSheet derives the debt ratio from assets and liabilities.
func NewBalanceSheet(year int, totalAssets, totalLiabilities float64) BalanceSheet {
	ratio := 0.0
	if totalAssets != 0 {
		ratio = totalLiabilities / totalAssets
	}
	return BalanceSheet{
		Year:             year,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		DebtRatio:        ratio,
	}
}

// CashFlow is one fiscal year of free cash flow, in millions.
type CashFlow struct {
	Year          int     `json:"year" yaml:"year"`
	FreeCashFlow  float64 `json:"freeCashFlow" yaml:"freeCashFlow"`
	FCFSalesRatio float64 `json:"fcfSalesRatio" yaml:"fcfSalesRatio"` // percent of same-year revenue
}

// NewCashFlow derives the FCF/sales ratio against the income statement for the
// same fiscal year. Years without a matching statement (or zero revenue) get 0.
func NewCashFlow(year int, freeCashFlow float64, income []IncomeStatement) CashFlow {
	ratio := 0.0
	for _, is := range income {
		if is.Year == year {
			if is.TotalRevenue != 0 {
				ratio = freeCashFlow / is.TotalRevenue * 100
			}
			break
		}
	}
	return CashFlow{
		Year:          year,
		FreeCashFlow:  freeCashFlow,
		FCFSalesRatio: ratio,
	}
}

// ValuationMetrics are point-in-time figures from the company overview.
type ValuationMetrics struct {
	DividendPerShare float64 `json:"dividendPerShare" yaml:"dividendPerShare"`
	SharesIssued     float64 `json:"sharesIssued" yaml:"sharesIssued"`
	PERatio          float64 `json:"peRatio" yaml:"peRatio"`
}

// AnalysisScores carries the Quick Scan Score. The return-potential fields are
// fixed placeholders and are not derived from data.
type AnalysisScores struct {
	QuickScanScore       int                `json:"quickScanScore" yaml:"quickScanScore" validate:"gte=0,lte=100"`
	ReturnPotentialScore int                `json:"returnPotentialScore" yaml:"returnPotentialScore"`
	MinReturn3Y          float64            `json:"minReturn3Y" yaml:"minReturn3Y"`
	AvgReturn3Y          float64            `json:"avgReturn3Y" yaml:"avgReturn3Y"`
	MaxReturn3Y          float64            `json:"maxReturn3Y" yaml:"maxReturn3Y"`
	ValuationIndicator   ValuationIndicator `json:"valuationIndicator" yaml:"valuationIndicator" validate:"oneof=Overvalued Undervalued 'Fairly Valued'"`
}

// StockData is the aggregate record for one symbol. It is replaced wholesale
// on refresh and never mutated after construction.
type StockData struct {
	Overview         CompanyOverview   `json:"overview" yaml:"overview"`
	IncomeStatements []IncomeStatement `json:"incomeStatements" yaml:"incomeStatements" validate:"max=5"`
	BalanceSheets    []BalanceSheet    `json:"balanceSheets" yaml:"balanceSheets" validate:"max=5"`
	CashFlows        []CashFlow        `json:"cashFlows" yaml:"cashFlows" validate:"max=5"`
	Valuation        ValuationMetrics  `json:"valuation" yaml:"valuation"`
	Analysis         AnalysisScores    `json:"analysis" yaml:"analysis"`
}

var validate = validator.New()

// Validate checks structural invariants before the record is persisted.
func (d *StockData) Validate() error {
	if d == nil {
		return fmt.Errorf("stock data is nil")
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid stock data for %q: %w", d.Overview.Symbol, err)
	}
	if err := distinctYears(d); err != nil {
		return err
	}
	return nil
}

func distinctYears(d *StockData) error {
	check := func(kind string, years []int) error {
		seen := make(map[int]struct{}, len(years))
		for _, y := range years {
			if _, ok := seen[y]; ok {
				return fmt.Errorf("duplicate fiscal year %d in %s for %q", y, kind, d.Overview.Symbol)
			}
			seen[y] = struct{}{}
		}
		return nil
	}

	years := make([]int, 0, MaxAnnualReports)
	for _, s := range d.IncomeStatements {
		years = append(years, s.Year)
	}
	if err := check("income statements", years); err != nil {
		return err
	}

	years = years[:0]
	for _, s := range d.BalanceSheets {
		years = append(years, s.Year)
	}
	if err := check("balance sheets", years); err != nil {
		return err
	}

	years = years[:0]
	for _, s := range d.CashFlows {
		years = append(years, s.Year)
	}
	return check("cash flows", years)
}

// SearchResult is one symbol-search match.
type SearchResult struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Region     string `json:"region,omitempty" yaml:"region,omitempty"`
	Currency   string `json:"currency,omitempty" yaml:"currency,omitempty"`
	MatchScore string `json:"matchScore,omitempty" yaml:"matchScore,omitempty"`
}
