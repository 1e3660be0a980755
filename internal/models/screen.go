package models

// Criterion names in evaluation order.
const (
	CriterionCurrentRatio      = "current_ratio"
	CriterionDebtToEquity      = "debt_to_equity"
	CriterionPE                = "pe"
	CriterionPB                = "pb"
	CriterionPEtimesPB         = "pe_times_pb"
	CriterionPositiveEarnYears = "positive_earnings_years"
	CriterionMarginOfSafety    = "margin_of_safety"
	CriterionBookValuePositive = "book_value_positive"
)

// CriterionResult records one screening criterion outcome. Defined is false
// when the underlying ratio could not be computed (for example a non-positive
// denominator); undefined criteria always fail with zero credit.
type CriterionResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Credit    float64 `json:"credit"` // 0..12.5
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
	Defined   bool    `json:"defined"`
}

// ScreenMetrics holds the raw ratios behind the criteria. Nil means the
// ratio was undefined for this company.
type ScreenMetrics struct {
	CurrentRatio          *float64    `json:"current_ratio"`
	DebtToEquity          *float64    `json:"debt_to_equity"`
	PE                    *float64    `json:"pe"`
	PB                    *float64    `json:"pb"`
	PEtimesPB             *float64    `json:"pe_times_pb"`
	EPS                   *float64    `json:"eps"`
	BVPS                  *float64    `json:"bvps"`
	PositiveEarningsYears int         `json:"positive_earnings_years"`
	OwnerEarningsHistory  []YearValue `json:"owner_earnings_history,omitempty"`
}

// ScreeningResult is the full evaluation of one ticker: valuations,
// criteria, composite score and qualification.
type ScreeningResult struct {
	Ticker         string            `json:"ticker"`
	Qualifies      bool              `json:"qualifies"`
	CompositeScore float64           `json:"composite_score"` // 0..100
	Criteria       []CriterionResult `json:"criteria"`
	IntrinsicValue *float64          `json:"intrinsic_value"` // nil when triangulation failed
	Confidence     float64           `json:"confidence"`
	MarginOfSafety *float64          `json:"margin_of_safety"` // nil when intrinsic or price undefined
	Price          float64           `json:"price"`
	Estimates      []MethodEstimate  `json:"estimates"`
	Metrics        ScreenMetrics     `json:"metrics"`
}

// Criterion returns the named criterion result, or nil when absent.
func (r *ScreeningResult) Criterion(name string) *CriterionResult {
	for i := range r.Criteria {
		if r.Criteria[i].Name == name {
			return &r.Criteria[i]
		}
	}
	return nil
}

// SkippedTicker records why a ticker was excluded from ranking.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of screening a batch of tickers: ranked
// results ordered by composite score descending (ticker ascending on ties)
// and an itemized skip log ordered by ticker.
type BatchResult struct {
	RunID   string            `json:"run_id"`
	Ranked  []ScreeningResult `json:"ranked"`
	Skipped []SkippedTicker   `json:"skipped"`
}
