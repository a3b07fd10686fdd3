package alphavantage

import (
	"bytes"
	"encoding/json"
)

// envelope holds the informational keys Alpha Vantage returns in place of data.
type envelope struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// SymbolMatch is one entry of a SYMBOL_SEARCH response.
type SymbolMatch struct {
	Symbol      string `json:"1. symbol"`
	Name        string `json:"2. name"`
	Type        string `json:"3. type"`
	Region      string `json:"4. region"`
	MarketOpen  string `json:"5. marketOpen"`
	MarketClose string `json:"6. marketClose"`
	Timezone    string `json:"7. timezone"`
	Currency    string `json:"8. currency"`
	MatchScore  string `json:"9. matchScore"`
}

// SearchResponse is the SYMBOL_SEARCH payload.
type SearchResponse struct {
	BestMatches []SymbolMatch `json:"bestMatches"`
}

// Overview is the subset of the OVERVIEW payload the application reads.
// Numeric values usually arrive as strings and may be "None".
type Overview struct {
	Symbol            string `json:"Symbol"`
	AssetType         string `json:"AssetType"`
	Name              string `json:"Name"`
	Exchange          string `json:"Exchange"`
	Currency          string `json:"Currency"`
	Country           string `json:"Country"`
	Sector            string `json:"Sector"`
	Industry          string `json:"Industry"`
	FiscalYearEnd     string `json:"FiscalYearEnd"`
	MarketCap         Number `json:"MarketCapitalization"`
	PERatio           Number `json:"PERatio"`
	DividendPerShare  Number `json:"DividendPerShare"`
	DividendYield     Number `json:"DividendYield"`
	SharesOutstanding Number `json:"SharesOutstanding"`
}

// GlobalQuote is the inner object of a GLOBAL_QUOTE response.
type GlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             Number `json:"02. open"`
	High             Number `json:"03. high"`
	Low              Number `json:"04. low"`
	Price            Number `json:"05. price"`
	Volume           Number `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    Number `json:"08. previous close"`
	Change           Number `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

// QuoteResponse is the GLOBAL_QUOTE payload.
type QuoteResponse struct {
	GlobalQuote GlobalQuote `json:"Global Quote"`
}

// AnnualReport is one fiscal year of a statement. Only the fields consumed by
// normalization are mapped; the three statement endpoints share this shape.
type AnnualReport struct {
	FiscalDateEnding    string `json:"fiscalDateEnding"`
	ReportedCurrency    string `json:"reportedCurrency"`
	TotalRevenue        Number `json:"totalRevenue"`
	NetIncome           Number `json:"netIncome"`
	TotalAssets         Number `json:"totalAssets"`
	TotalLiabilities    Number `json:"totalLiabilities"`
	OperatingCashflow   Number `json:"operatingCashflow"`
	CapitalExpenditures Number `json:"capitalExpenditures"`
}

// StatementResponse is the INCOME_STATEMENT / BALANCE_SHEET / CASH_FLOW payload.
// Annual reports are ordered newest first.
type StatementResponse struct {
	Symbol        string         `json:"symbol"`
	AnnualReports []AnnualReport `json:"annualReports"`
}

// Number is a numeric field as sent upstream. Alpha Vantage quotes figures as
// strings but a bare JSON number or null must decode too. Anything else decodes
// to "" so one odd field never fails the whole response.
type Number string

// UnmarshalJSON accepts a string, a number or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = ""
			return nil
		}
		*n = Number(s)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			// bool, object or array
			*n = ""
			return nil
		}
		*n = Number(num.String())
	}
	return nil
}

// String returns the raw text of the field.
func (n Number) String() string {
	return string(n)
}
