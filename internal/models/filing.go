package models

// Filing is one SEC EDGAR filing reference used in the report audit trail.
// Only links and metadata are carried; filing contents are never fetched.
type Filing struct {
	Form            string `json:"form"` // "10-K", "10-Q"
	FilingDate      string `json:"filing_date"`
	AccessionNumber string `json:"accession_number"`
	DocumentURL     string `json:"document_url"`
}

// AuditTrail groups the EDGAR references for one ticker.
type AuditTrail struct {
	Ticker  string   `json:"ticker"`
	CIK     string   `json:"cik,omitempty"`
	Filings []Filing `json:"filings,omitempty"`
}
