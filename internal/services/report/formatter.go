package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
)

// formatTickerReport generates the per-ticker markdown report
func formatTickerReport(report *models.TickerReport) string {
	var sb strings.Builder
	r := report.Result
	p := report.Profile

	// Header
	title := r.Ticker
	if p != nil && p.Name != "" {
		title = fmt.Sprintf("%s - %s", r.Ticker, p.Name)
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	verdict := "DOES NOT QUALIFY"
	if r.Qualifies {
		verdict = "QUALIFIES"
	}
	sb.WriteString(fmt.Sprintf("**Verdict:** %s | **Score:** %.1f/100\n\n", verdict, r.CompositeScore))

	if p != nil {
		if p.Sector != "" || p.Industry != "" {
			sb.WriteString(fmt.Sprintf("**Sector:** %s | **Industry:** %s\n", p.Sector, p.Industry))
		}
		if p.Exchange != "" || p.MarketCap > 0 {
			sb.WriteString(fmt.Sprintf("**Exchange:** %s | **Market Cap:** %s\n", p.Exchange, common.FormatMarketCap(p.MarketCap)))
		}
		sb.WriteString("\n")
	}

	// Valuation
	sb.WriteString("## Valuation\n\n")
	sb.WriteString("| Method | Estimate | Notes |\n")
	sb.WriteString("|--------|----------|-------|\n")
	for _, est := range r.Estimates {
		if est.Defined() {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", methodLabel(est.Method), common.FormatMoney(*est.Value), est.Detail))
		} else {
			sb.WriteString(fmt.Sprintf("| %s | n/a | %s |\n", methodLabel(est.Method), est.Detail))
		}
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("**Price:** %s\n", common.FormatMoney(r.Price)))
	if r.IntrinsicValue != nil {
		sb.WriteString(fmt.Sprintf("**Intrinsic Value:** %s (confidence %s)\n", common.FormatMoney(*r.IntrinsicValue), common.FormatPct(r.Confidence)))
	} else {
		sb.WriteString("**Intrinsic Value:** n/a (all valuation methods failed)\n")
	}
	if r.MarginOfSafety != nil {
		sb.WriteString(fmt.Sprintf("**Margin of Safety:** %s\n", common.FormatPct(*r.MarginOfSafety)))
	}
	sb.WriteString("\n")

	// Criteria
	sb.WriteString("## Graham Criteria\n\n")
	sb.WriteString("| Criterion | Actual | Threshold | Credit | Status |\n")
	sb.WriteString("|-----------|--------|-----------|--------|--------|\n")
	for _, c := range r.Criteria {
		actual := "n/a"
		if c.Defined {
			actual = formatCriterionValue(c.Name, c.Actual)
		}
		status := "FAIL"
		if c.Passed {
			status = "PASS"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.1f | %s |\n",
			criterionLabel(c.Name), actual, formatCriterionValue(c.Name, c.Threshold), c.Credit, status))
	}
	sb.WriteString("\n")

	// Metrics
	sb.WriteString("## Key Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	m := r.Metrics
	sb.WriteString(fmt.Sprintf("| Current Ratio | %s |\n", formatOptionalRatio(m.CurrentRatio)))
	sb.WriteString(fmt.Sprintf("| Debt/Equity | %s |\n", formatOptionalRatio(m.DebtToEquity)))
	sb.WriteString(fmt.Sprintf("| P/E | %s |\n", formatOptionalRatio(m.PE)))
	sb.WriteString(fmt.Sprintf("| P/B | %s |\n", formatOptionalRatio(m.PB)))
	sb.WriteString(fmt.Sprintf("| P/E x P/B | %s |\n", formatOptionalRatio(m.PEtimesPB)))
	sb.WriteString(fmt.Sprintf("| EPS | %s |\n", formatOptionalMoney(m.EPS)))
	sb.WriteString(fmt.Sprintf("| Book Value / Share | %s |\n", formatOptionalMoney(m.BVPS)))
	sb.WriteString(fmt.Sprintf("| Positive Earnings Streak | %d years |\n", m.PositiveEarningsYears))
	sb.WriteString("\n")

	// Owner earnings history
	if len(m.OwnerEarningsHistory) > 0 {
		sb.WriteString("## Owner Earnings\n\n")
		if report.ChartPath != "" {
			sb.WriteString(fmt.Sprintf("![Owner Earnings](%s)\n\n", report.ChartPath))
		}
		sb.WriteString("| Year | Owner Earnings |\n")
		sb.WriteString("|------|----------------|\n")
		for _, yv := range m.OwnerEarningsHistory {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", yv.Year, common.FormatMoney(yv.Value)))
		}
		sb.WriteString("\n")
	}

	// Commentary
	if report.Commentary != "" {
		sb.WriteString("## Commentary\n\n")
		sb.WriteString(report.Commentary)
		sb.WriteString("\n\n")
	}

	// Audit trail
	if report.AuditTrail != nil && len(report.AuditTrail.Filings) > 0 {
		sb.WriteString("## Data Sources\n\n")
		if report.AuditTrail.CIK != "" {
			sb.WriteString(fmt.Sprintf("SEC CIK: %s\n\n", report.AuditTrail.CIK))
		}
		for _, f := range report.AuditTrail.Filings {
			sb.WriteString(fmt.Sprintf("- [%s %s](%s)\n", f.Form, f.FilingDate, f.DocumentURL))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("*Run %s | Generated %s*\n", report.RunID, time.Now().UTC().Format("2006-01-02")))

	return sb.String()
}

// methodLabel returns the display name for a valuation method
func methodLabel(method string) string {
	switch method {
	case models.MethodEPV:
		return "Earnings Power Value"
	case models.MethodAsset:
		return "Asset Value"
	case models.MethodDCF:
		return "Conservative DCF"
	default:
		return method
	}
}

// criterionLabel returns the display name for a criterion
func criterionLabel(name string) string {
	switch name {
	case models.CriterionCurrentRatio:
		return "Current Ratio"
	case models.CriterionDebtToEquity:
		return "Debt/Equity"
	case models.CriterionPE:
		return "P/E"
	case models.CriterionPB:
		return "P/B"
	case models.CriterionPEtimesPB:
		return "P/E x P/B"
	case models.CriterionPositiveEarnYears:
		return "Positive Earnings Years"
	case models.CriterionMarginOfSafety:
		return "Margin of Safety"
	case models.CriterionBookValuePositive:
		return "Positive Book Value"
	default:
		return name
	}
}

// formatCriterionValue formats a criterion value in its natural unit
func formatCriterionValue(name string, v float64) string {
	switch name {
	case models.CriterionMarginOfSafety:
		return common.FormatPct(v)
	case models.CriterionBookValuePositive:
		return common.FormatMoney(v)
	case models.CriterionPositiveEarnYears:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func formatOptionalRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatOptionalMoney(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return common.FormatMoney(*v)
}
