// Package models defines data structures for Graham
package models

// FinancialPeriod holds one fiscal year of reported figures for a company.
// Absent fields are zero; downstream math treats zero as the conservative
// reading (no earnings, no assets, no add-backs).
type FinancialPeriod struct {
	FiscalDate         string  `json:"fiscal_date"` // "2023-12-31"
	NetIncome          float64 `json:"net_income"`
	Depreciation       float64 `json:"depreciation"`
	CapEx              float64 `json:"capex"`
	CurrentAssets      float64 `json:"current_assets"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	TotalDebt          float64 `json:"total_debt"`
	ShareholderEquity  float64 `json:"shareholder_equity"`
	Intangibles        float64 `json:"intangibles"`
	Goodwill           float64 `json:"goodwill"`
	SharesOutstanding  float64 `json:"shares_outstanding"`
	DividendsPaid      float64 `json:"dividends_paid"`
	OperatingCashFlow  float64 `json:"operating_cash_flow"`
	Revenue            float64 `json:"revenue"`
}

// NetWorkingCapital returns current assets minus current liabilities.
func (p FinancialPeriod) NetWorkingCapital() float64 {
	return p.CurrentAssets - p.CurrentLiabilities
}

// FinancialStatement holds the multi-year statement history for a ticker,
// ordered oldest to newest.
type FinancialStatement struct {
	Ticker  string            `json:"ticker"`
	Periods []FinancialPeriod `json:"periods"`
}

// Latest returns the most recent period, or nil when no periods exist.
func (s *FinancialStatement) Latest() *FinancialPeriod {
	if s == nil || len(s.Periods) == 0 {
		return nil
	}
	return &s.Periods[len(s.Periods)-1]
}

// Window returns up to the n most recent periods, preserving order.
func (s *FinancialStatement) Window(n int) []FinancialPeriod {
	if s == nil || n <= 0 {
		return nil
	}
	if n >= len(s.Periods) {
		return s.Periods
	}
	return s.Periods[len(s.Periods)-n:]
}

// CompanyProfile holds descriptive company data used for universe filtering
// and report headers.
type CompanyProfile struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"market_cap"`
	CIK       string  `json:"cik,omitempty"` // SEC central index key when known
}

// Quote holds a point-in-time price for a ticker.
type Quote struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	AsOf   string  `json:"as_of,omitempty"`
}
