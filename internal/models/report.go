package models

// ReportSummaryRow is one flattened ranking row for the CSV and JSON
// summary outputs.
type ReportSummaryRow struct {
	Rank           int      `json:"rank"`
	Ticker         string   `json:"ticker"`
	Name           string   `json:"name,omitempty"`
	Qualifies      bool     `json:"qualifies"`
	CompositeScore float64  `json:"composite_score"`
	IntrinsicValue *float64 `json:"intrinsic_value"`
	Price          float64  `json:"price"`
	MarginOfSafety *float64 `json:"margin_of_safety"`
	Confidence     float64  `json:"confidence"`
	Methods        []string `json:"methods"`
	CriteriaPassed int      `json:"criteria_passed"`
}

// TickerReport bundles everything the per-ticker Markdown report renders.
type TickerReport struct {
	Result     *ScreeningResult `json:"result"`
	Profile    *CompanyProfile  `json:"profile,omitempty"`
	AuditTrail *AuditTrail      `json:"audit_trail,omitempty"`
	Commentary string           `json:"commentary,omitempty"` // optional AI thesis
	ChartPath  string           `json:"chart_path,omitempty"` // relative path to the owner-earnings PNG
	RunID      string           `json:"run_id"`
}
