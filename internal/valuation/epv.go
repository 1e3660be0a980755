package valuation

import (
	"fmt"
	"sort"

	"github.com/bobmcallan/graham/internal/models"
)

// EarningsPowerValue capitalizes normalized owner earnings as a flat
// perpetuity: mean of the trailing window divided by the EPV discount rate.
// Windows of five or more values have the single highest and lowest value
// excluded before averaging. Returns ErrInsufficientData when fewer than
// min(3, W) periods exist; a non-positive normalized mean yields an
// undefined estimate, not an error.
func (v *Valuator) EarningsPowerValue(stmt *models.FinancialStatement) (models.MethodEstimate, error) {
	est := models.MethodEstimate{Method: models.MethodEPV}

	series := v.OwnerEarningsSeries(stmt)
	w := v.cfg.EPVWindowYears
	need := minInt(3, w)
	if len(series) < need {
		return est, fmt.Errorf("epv requires %d periods, have %d: %w", need, len(series), ErrInsufficientData)
	}

	window := series
	if len(window) > w {
		window = window[len(window)-w:]
	}

	trimmed := window
	if w >= 5 && len(window) >= 5 {
		sorted := append([]float64(nil), window...)
		sort.Float64s(sorted)
		trimmed = sorted[1 : len(sorted)-1]
	}

	var sum float64
	for _, e := range trimmed {
		sum += e
	}
	normalized := sum / float64(len(trimmed))

	if normalized <= 0 {
		est.Detail = "non-positive normalized owner earnings"
		return est, nil
	}

	shares := latestShares(stmt)
	if shares <= 0 {
		est.Detail = "no shares outstanding"
		return est, nil
	}

	total := normalized / v.cfg.EPVDiscountRate
	est.Value = ptr(total / shares)
	est.Detail = fmt.Sprintf("normalized owner earnings %.2f at %.1f%% over %d periods",
		normalized, v.cfg.EPVDiscountRate*100, len(trimmed))
	return est, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
