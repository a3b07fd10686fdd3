package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/models"
	"github.com/ternarybob/stockscan/internal/services/scoring"
)

// Output formats accepted by -o
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatJSON, formatYAML:
		return true
	}
	return false
}

// writeStockData renders data in the requested format.
func writeStockData(w io.Writer, format string, data *models.StockData) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		return writeStockText(w, data)
	default:
		return fmt.Errorf("unknown output format %q (expected text, json or yaml)", format)
	}
}

func writeStockText(w io.Writer, data *models.StockData) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\n", data.Overview.Symbol, data.Overview.Name)
	fmt.Fprintf(tw, "Market\t%s\n", common.ParseSymbol(data.Overview.Symbol).MarketName())
	fmt.Fprintf(tw, "Price\t%.2f\n", data.Overview.CurrentPrice)
	fmt.Fprintf(tw, "P/E\t%.2f\n", data.Valuation.PERatio)
	fmt.Fprintf(tw, "Dividend/share\t%.2f\n", data.Valuation.DividendPerShare)
	fmt.Fprintf(tw, "Shares issued\t%s\n", humanize.Commaf(data.Valuation.SharesIssued))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Income ($M)\tRevenue\tNet income\tMargin %")
	for _, s := range data.IncomeStatements {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\n", yearLabel(s.Year), s.TotalRevenue, s.NetIncome, s.ProfitMargin)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Balance ($M)\tAssets\tLiabilities\tDebt ratio")
	for _, s := range data.BalanceSheets {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.3f\n", yearLabel(s.Year), s.TotalAssets, s.TotalLiabilities, s.DebtRatio)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Cash flow ($M)\tFree cash flow\tFCF/sales %")
	for _, s := range data.CashFlows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", yearLabel(s.Year), s.FreeCashFlow, s.FCFSalesRatio)
	}
	fmt.Fprintln(tw)

	a := data.Analysis
	fmt.Fprintf(tw, "Quick Scan Score\t%d/100\n", a.QuickScanScore)
	for _, b := range scoring.Explain(data.IncomeStatements, data.BalanceSheets, data.CashFlows) {
		fmt.Fprintf(tw, "  %s\t%d/%d\n", b.Metric, b.Points, b.Intervals)
	}
	fmt.Fprintf(tw, "Return potential\t%d\n", a.ReturnPotentialScore)
	fmt.Fprintf(tw, "3Y return (min/avg/max)\t%.1f / %.1f / %.1f\n", a.MinReturn3Y, a.AvgReturn3Y, a.MaxReturn3Y)
	fmt.Fprintf(tw, "Valuation\t%s\n", a.ValuationIndicator)

	return tw.Flush()
}

// yearLabel shows "-" for a fiscal year that could not be parsed.
func yearLabel(year int) string {
	if year == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", year)
}

func writeSearchResults(w io.Writer, format string, results []models.SearchResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		if len(results) == 0 {
			_, err := fmt.Fprintln(w, "No matches")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SYMBOL\tNAME\tREGION\tCURRENCY")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Symbol, r.Name, r.Region, r.Currency)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (expected text, json or yaml)", format)
	}
}

// cachedSymbol is one row of `cache list`.
type cachedSymbol struct {
	Symbol     string
	CapturedAt time.Time
	Fresh      bool
}

func writeCachedSymbols(w io.Writer, rows []cachedSymbol) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Dataset cache is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCAPTURED\tSTATUS")
	for _, r := range rows {
		status := "stale"
		if r.Fresh {
			status = "fresh"
		}
		captured := "-"
		if !r.CapturedAt.IsZero() {
			captured = humanize.Time(r.CapturedAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Symbol, captured, status)
	}
	return tw.Flush()
}

// stateLine summarizes a committed loader state for `watch`.
func stateLine(symbol string, loading bool, err error, data *models.StockData, source string) string {
	switch {
	case loading:
		return fmt.Sprintf("%s: loading...", symbol)
	case err != nil && data != nil:
		return fmt.Sprintf("%s: refresh failed (%v), showing %.2f", symbol, err, data.Overview.CurrentPrice)
	case err != nil:
		return fmt.Sprintf("%s: error: %v", symbol, err)
	case data != nil:
		return fmt.Sprintf("%s %s: %.2f  score %d  [%s]",
			data.Overview.Symbol, strings.TrimSpace(data.Overview.Name), data.Overview.CurrentPrice,
			data.Analysis.QuickScanScore, source)
	default:
		return fmt.Sprintf("%s: no data", symbol)
	}
}
