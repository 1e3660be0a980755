package models

// Valuation method names used across estimates, triangulation and reports.
const (
	MethodEPV   = "epv"
	MethodAsset = "asset"
	MethodDCF   = "dcf"
)

// MethodEstimate is the per-share output of a single valuation method.
// Value is nil when the method ran but produced no usable positive estimate.
type MethodEstimate struct {
	Method string   `json:"method"`
	Value  *float64 `json:"value"`
	Detail string   `json:"detail,omitempty"` // short human-readable derivation
}

// Defined reports whether the estimate carries a usable value.
func (e MethodEstimate) Defined() bool {
	return e.Value != nil
}

// TriangulatedValue is the confidence-weighted blend of the surviving
// method estimates.
type TriangulatedValue struct {
	Value      float64  `json:"value"`
	Confidence float64  `json:"confidence"` // surviving weight fraction, 0..1
	Methods    []string `json:"methods"`    // surviving methods in canonical order
}

// YearValue pairs a fiscal year label with a computed value, used for
// owner-earnings history in results and charts.
type YearValue struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}
