package alphavantage

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// Alpha Vantage returns every numeric field as a string and uses "None"
// for missing values.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "None" || s == "N/A" || s == "-" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// statementResponse is the shared envelope of the INCOME_STATEMENT,
// BALANCE_SHEET and CASH_FLOW endpoints.
type statementResponse struct {
	Symbol        string         `json:"symbol"`
	AnnualReports []annualReport `json:"annualReports"`
}

// annualReport is the union of the per-endpoint report fields; each endpoint
// populates its own subset and leaves the rest zero.
type annualReport struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`

	// INCOME_STATEMENT
	NetIncome                   flexFloat64 `json:"netIncome"`
	TotalRevenue                flexFloat64 `json:"totalRevenue"`
	DepreciationAndAmortization flexFloat64 `json:"depreciationAndAmortization"`

	// BALANCE_SHEET
	TotalCurrentAssets           flexFloat64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities      flexFloat64 `json:"totalCurrentLiabilities"`
	TotalLiabilities             flexFloat64 `json:"totalLiabilities"`
	ShortTermDebt                flexFloat64 `json:"shortTermDebt"`
	LongTermDebt                 flexFloat64 `json:"longTermDebt"`
	TotalShareholderEquity       flexFloat64 `json:"totalShareholderEquity"`
	IntangibleAssets             flexFloat64 `json:"intangibleAssets"`
	Goodwill                     flexFloat64 `json:"goodwill"`
	CommonStockSharesOutstanding flexFloat64 `json:"commonStockSharesOutstanding"`

	// CASH_FLOW
	OperatingCashflow                    flexFloat64 `json:"operatingCashflow"`
	CapitalExpenditures                  flexFloat64 `json:"capitalExpenditures"`
	DepreciationDepletionAndAmortization flexFloat64 `json:"depreciationDepletionAndAmortization"`
	DividendPayout                       flexFloat64 `json:"dividendPayout"`
}

// overviewResponse is the OVERVIEW endpoint payload.
type overviewResponse struct {
	Symbol               string      `json:"Symbol"`
	Name                 string      `json:"Name"`
	Exchange             string      `json:"Exchange"`
	Sector               string      `json:"Sector"`
	Industry             string      `json:"Industry"`
	MarketCapitalization flexFloat64 `json:"MarketCapitalization"`
	CIK                  string      `json:"CIK"`
}

// globalQuoteResponse is the GLOBAL_QUOTE endpoint payload.
type globalQuoteResponse struct {
	Quote globalQuote `json:"Global Quote"`
}

type globalQuote struct {
	Symbol           string      `json:"01. symbol"`
	Price            flexFloat64 `json:"05. price"`
	LatestTradingDay string      `json:"07. latest trading day"`
}

// apiNotice matches the notices Alpha Vantage embeds in otherwise successful
// responses: Note and Information signal rate limiting, Error Message signals
// a bad request. All arrive with HTTP 200.
type apiNotice struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}
