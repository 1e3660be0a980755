package valuation

import (
	"fmt"
	"math"

	"github.com/bobmcallan/graham/internal/models"
)

// ConservativeDCF projects the latest owner earnings forward at the
// historical compound growth rate, capped on the upside and preserved when
// negative, then discounts the projections plus a Gordon terminal value.
// Returns ErrInsufficientData with fewer than two periods; a non-positive
// projection base yields an undefined estimate.
func (v *Valuator) ConservativeDCF(stmt *models.FinancialStatement) (models.MethodEstimate, error) {
	est := models.MethodEstimate{Method: models.MethodDCF}

	series := v.OwnerEarningsSeries(stmt)
	if len(series) < 2 {
		return est, fmt.Errorf("dcf requires 2 periods, have %d: %w", len(series), ErrInsufficientData)
	}

	base := series[len(series)-1]
	if base <= 0 {
		est.Detail = "non-positive owner earnings base"
		return est, nil
	}

	shares := latestShares(stmt)
	if shares <= 0 {
		est.Detail = "no shares outstanding"
		return est, nil
	}

	growth := historicalCAGR(series)
	if growth > v.cfg.DCFGrowthCap {
		growth = v.cfg.DCFGrowthCap
	}

	terminalGrowth := growth / 2
	if terminalGrowth > v.cfg.DCFTerminalGrowthCap {
		terminalGrowth = v.cfg.DCFTerminalGrowthCap
	}

	r := v.cfg.DCFDiscountRate
	horizon := v.cfg.DCFHorizonYears

	var total float64
	for t := 1; t <= horizon; t++ {
		cf := base * math.Pow(1+growth, float64(t))
		total += cf / math.Pow(1+r, float64(t))
	}

	// Gordon terminal value; config validation guarantees r > terminal growth.
	finalCF := base * math.Pow(1+growth, float64(horizon))
	terminal := finalCF * (1 + terminalGrowth) / (r - terminalGrowth)
	total += terminal / math.Pow(1+r, float64(horizon))

	if total <= 0 {
		est.Detail = "non-positive discounted value"
		return est, nil
	}

	est.Value = ptr(total / shares)
	est.Detail = fmt.Sprintf("growth %.1f%% (cap %.1f%%), %dy horizon at %.1f%%",
		growth*100, v.cfg.DCFGrowthCap*100, horizon, r*100)
	return est, nil
}

// historicalCAGR computes the compound annual growth rate across the
// owner-earnings series. Undefined bases (non-positive endpoints) return
// zero growth rather than assuming any.
func historicalCAGR(series []float64) float64 {
	first := series[0]
	last := series[len(series)-1]
	if first <= 0 || last <= 0 || len(series) < 2 {
		return 0
	}
	years := float64(len(series) - 1)
	return math.Pow(last/first, 1/years) - 1
}
