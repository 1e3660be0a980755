package valuation

import (
	"github.com/bobmcallan/graham/internal/models"
)

// OwnerEarningsSeries computes the conservative owner-earnings proxy for
// every period, oldest first:
//
//	owner = net_income + min(0, dep*dep_factor - capex*capex_mult - Δnwc*nwc_haircut)
//
// Missing or zero capex substitutes depreciation as a stand-in before the
// multiplier. The working-capital delta is zero for the first period. The
// combined adjustment is clamped at zero so owner earnings never exceed
// reported net income, under any configuration.
func (v *Valuator) OwnerEarningsSeries(stmt *models.FinancialStatement) []float64 {
	if stmt == nil || len(stmt.Periods) == 0 {
		return nil
	}

	series := make([]float64, len(stmt.Periods))
	for i, p := range stmt.Periods {
		capex := p.CapEx
		if capex <= 0 {
			capex = p.Depreciation
		}

		deltaNWC := 0.0
		if i > 0 {
			prev := stmt.Periods[i-1]
			if hasWorkingCapitalData(p) && hasWorkingCapitalData(prev) {
				deltaNWC = p.NetWorkingCapital() - prev.NetWorkingCapital()
			}
		}

		adjustment := p.Depreciation*v.cfg.DepreciationFactor -
			capex*v.cfg.CapexMultiplier -
			deltaNWC*v.cfg.NWCHaircut
		if adjustment > 0 {
			adjustment = 0
		}

		series[i] = p.NetIncome + adjustment
	}
	return series
}

// OwnerEarningsHistory pairs each period's fiscal year with its owner
// earnings, for results and charts.
func (v *Valuator) OwnerEarningsHistory(stmt *models.FinancialStatement) []models.YearValue {
	series := v.OwnerEarningsSeries(stmt)
	if series == nil {
		return nil
	}
	history := make([]models.YearValue, len(series))
	for i, val := range series {
		history[i] = models.YearValue{
			Year:  fiscalYear(stmt.Periods[i].FiscalDate),
			Value: val,
		}
	}
	return history
}

// hasWorkingCapitalData reports whether the period carries any balance
// sheet figures to form a working-capital position from.
func hasWorkingCapitalData(p models.FinancialPeriod) bool {
	return p.CurrentAssets != 0 || p.CurrentLiabilities != 0
}

// fiscalYear extracts the year from a "2006-01-02" fiscal date.
func fiscalYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}
