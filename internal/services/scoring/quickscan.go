// Package scoring computes the Quick Scan Score, a 0-100 measure of how
// consistently a company's fundamentals improved year over year.
package scoring

import (
	"math"
	"sort"

	"github.com/ternarybob/stockscan/internal/models"
)

// direction says whether a metric improves when it rises or when it falls.
type direction int

const (
	higherIsBetter direction = iota
	lowerIsBetter
)

type metric struct {
	name   string
	series []float64
	dir    direction
}

// Breakdown is the per-metric tally behind a score.
type Breakdown struct {
	Metric    string `json:"metric" yaml:"metric"`
	Points    int    `json:"points" yaml:"points"`
	Intervals int    `json:"intervals" yaml:"intervals"`
}

// CalculateQuickScanScore scores six metrics over consecutive fiscal years.
// Revenue, net income, profit margin and free cash flow earn a point for each
// strict increase. Total liabilities and debt ratio earn a point for each
// strict decrease. Ties earn nothing. The score is round(points/intervals*100),
// or 0 when no series has two entries. Inputs are not modified.
func CalculateQuickScanScore(income []models.IncomeStatement, balance []models.BalanceSheet, cash []models.CashFlow) int {
	var points, intervals int
	for _, b := range Explain(income, balance, cash) {
		points += b.Points
		intervals += b.Intervals
	}
	return toScore(points, intervals)
}

// Explain returns the per-metric tallies in scoring order.
func Explain(income []models.IncomeStatement, balance []models.BalanceSheet, cash []models.CashFlow) []Breakdown {
	metrics := buildMetrics(income, balance, cash)

	out := make([]Breakdown, 0, len(metrics))
	for _, m := range metrics {
		p, n := scoreSeries(m.series, m.dir)
		out = append(out, Breakdown{Metric: m.name, Points: p, Intervals: n})
	}
	return out
}

// buildMetrics sorts copies of each collection by ascending year and extracts
// the six scored series.
func buildMetrics(income []models.IncomeStatement, balance []models.BalanceSheet, cash []models.CashFlow) []metric {
	sortedIncome := append([]models.IncomeStatement(nil), income...)
	sort.SliceStable(sortedIncome, func(i, j int) bool { return sortedIncome[i].Year < sortedIncome[j].Year })

	sortedBalance := append([]models.BalanceSheet(nil), balance...)
	sort.SliceStable(sortedBalance, func(i, j int) bool { return sortedBalance[i].Year < sortedBalance[j].Year })

	sortedCash := append([]models.CashFlow(nil), cash...)
	sort.SliceStable(sortedCash, func(i, j int) bool { return sortedCash[i].Year < sortedCash[j].Year })

	revenue := make([]float64, len(sortedIncome))
	netIncome := make([]float64, len(sortedIncome))
	margin := make([]float64, len(sortedIncome))
	for i, s := range sortedIncome {
		revenue[i] = s.TotalRevenue
		netIncome[i] = s.NetIncome
		margin[i] = s.ProfitMargin
	}

	fcf := make([]float64, len(sortedCash))
	for i, c := range sortedCash {
		fcf[i] = c.FreeCashFlow
	}

	liabilities := make([]float64, len(sortedBalance))
	debtRatio := make([]float64, len(sortedBalance))
	for i, b := range sortedBalance {
		liabilities[i] = b.TotalLiabilities
		debtRatio[i] = b.DebtRatio
	}

	return []metric{
		{"revenue", revenue, higherIsBetter},
		{"net income", netIncome, higherIsBetter},
		{"profit margin", margin, higherIsBetter},
		{"free cash flow", fcf, higherIsBetter},
		{"total liabilities", liabilities, lowerIsBetter},
		{"debt ratio", debtRatio, lowerIsBetter},
	}
}

func scoreSeries(series []float64, dir direction) (points, intervals int) {
	for i := 1; i < len(series); i++ {
		intervals++
		prev, curr := series[i-1], series[i]
		if (dir == higherIsBetter && curr > prev) || (dir == lowerIsBetter && curr < prev) {
			points++
		}
	}
	return points, intervals
}

func toScore(points, intervals int) int {
	if intervals == 0 {
		return 0
	}
	return int(math.Round(float64(points) / float64(intervals) * 100))
}
