// Package screen evaluates securities against the Graham criteria,
// scores them with partial credit and ranks batches deterministically.
package screen

import (
	"errors"
	"fmt"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
	"github.com/bobmcallan/graham/internal/valuation"
)

// pointsPerCriterion is each criterion's share of the 0-100 composite score.
const pointsPerCriterion = 100.0 / 8.0

// currentRatioFloor is where current-ratio partial credit reaches zero.
const currentRatioFloor = 1.0

// Engine evaluates a single security or a batch against the screening
// criteria. Evaluate is pure: identical inputs always produce identical
// results.
type Engine struct {
	cfg      common.ScreenConfig
	valuator *valuation.Valuator
}

// NewEngine builds an Engine from validated valuation and screen parameters.
func NewEngine(valuationCfg common.ValuationConfig, screenCfg common.ScreenConfig) *Engine {
	return &Engine{
		cfg:      screenCfg,
		valuator: valuation.NewValuator(valuationCfg),
	}
}

// Evaluate runs the full pipeline for one ticker: owner earnings, the three
// valuation methods, triangulation, the eight criteria and the composite
// score. A failed triangulation is not an error here; the result carries a
// nil intrinsic value, an automatically failed margin-of-safety criterion
// and Qualifies false.
func (e *Engine) Evaluate(ticker string, stmt *models.FinancialStatement, price float64) (*models.ScreeningResult, error) {
	if stmt == nil || len(stmt.Periods) == 0 {
		return nil, fmt.Errorf("%s has no statement periods: %w", ticker, valuation.ErrInsufficientData)
	}

	estimates := e.valuator.EstimateAll(stmt)

	var intrinsic *float64
	confidence := 0.0
	tri, err := e.valuator.Triangulate(estimates)
	if err != nil && !errors.Is(err, valuation.ErrAllMethodsFailed) {
		return nil, fmt.Errorf("triangulating %s: %w", ticker, err)
	}
	if tri != nil {
		intrinsic = &tri.Value
		confidence = tri.Confidence
	}

	metrics := e.computeMetrics(stmt, price)
	metrics.OwnerEarningsHistory = e.valuator.OwnerEarningsHistory(stmt)

	var marginOfSafety *float64
	if intrinsic != nil && *intrinsic > 0 && price > 0 {
		mos := (*intrinsic - price) / *intrinsic
		marginOfSafety = &mos
	}

	criteria := e.applyCriteria(metrics, marginOfSafety)

	qualifies := true
	score := 0.0
	for _, c := range criteria {
		if !c.Passed {
			qualifies = false
		}
		score += c.Credit
	}

	return &models.ScreeningResult{
		Ticker:         ticker,
		Qualifies:      qualifies,
		CompositeScore: score,
		Criteria:       criteria,
		IntrinsicValue: intrinsic,
		Confidence:     confidence,
		MarginOfSafety: marginOfSafety,
		Price:          price,
		Estimates:      estimates,
		Metrics:        metrics,
	}, nil
}

// computeMetrics derives the screening ratios from the latest period and
// quote. Ratios with non-positive denominators stay nil; undefined is never
// given the benefit of the doubt.
func (e *Engine) computeMetrics(stmt *models.FinancialStatement, price float64) models.ScreenMetrics {
	m := models.ScreenMetrics{}
	latest := stmt.Latest()

	if latest.CurrentLiabilities > 0 {
		ratio := latest.CurrentAssets / latest.CurrentLiabilities
		m.CurrentRatio = &ratio
	}
	if latest.ShareholderEquity > 0 {
		ratio := latest.TotalDebt / latest.ShareholderEquity
		m.DebtToEquity = &ratio
	}
	if latest.SharesOutstanding > 0 {
		eps := latest.NetIncome / latest.SharesOutstanding
		m.EPS = &eps
		bvps := latest.ShareholderEquity / latest.SharesOutstanding
		m.BVPS = &bvps
	}
	if m.EPS != nil && *m.EPS > 0 && price > 0 {
		pe := price / *m.EPS
		m.PE = &pe
	}
	if m.BVPS != nil && *m.BVPS > 0 && price > 0 {
		pb := price / *m.BVPS
		m.PB = &pb
	}
	if m.PE != nil && m.PB != nil {
		product := *m.PE * *m.PB
		m.PEtimesPB = &product
	}

	series := e.valuator.OwnerEarningsSeries(stmt)
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] <= 0 {
			break
		}
		m.PositiveEarningsYears++
	}

	return m
}

// applyCriteria produces the eight criterion results in fixed order.
func (e *Engine) applyCriteria(m models.ScreenMetrics, mos *float64) []models.CriterionResult {
	criteria := make([]models.CriterionResult, 0, 8)

	criteria = append(criteria, higherIsBetter(
		models.CriterionCurrentRatio, m.CurrentRatio, e.cfg.MinCurrentRatio, currentRatioFloor))

	criteria = append(criteria, lowerIsBetter(
		models.CriterionDebtToEquity, m.DebtToEquity, e.cfg.MaxDebtToEquity))

	criteria = append(criteria, lowerIsBetter(
		models.CriterionPE, m.PE, e.cfg.MaxPE))

	criteria = append(criteria, lowerIsBetter(
		models.CriterionPB, m.PB, e.cfg.MaxPB))

	criteria = append(criteria, lowerIsBetter(
		models.CriterionPEtimesPB, m.PEtimesPB, e.cfg.MaxPEtimesPB))

	years := float64(m.PositiveEarningsYears)
	criteria = append(criteria, higherIsBetter(
		models.CriterionPositiveEarnYears, &years, float64(e.cfg.MinYearsPositiveEarnings), 0))

	criteria = append(criteria, higherIsBetter(
		models.CriterionMarginOfSafety, mos, e.cfg.MinMarginOfSafety, 0))

	criteria = append(criteria, bookValuePositive(m.BVPS))

	return criteria
}

// higherIsBetter grants full credit at or above the threshold, falling
// linearly to zero at the floor. An undefined metric fails with no credit.
func higherIsBetter(name string, actual *float64, threshold, floor float64) models.CriterionResult {
	c := models.CriterionResult{Name: name, Threshold: threshold}
	if actual == nil {
		return c
	}
	c.Defined = true
	c.Actual = *actual
	c.Passed = *actual >= threshold
	if threshold <= floor {
		// Degenerate configuration: no slope to scale along.
		if c.Passed {
			c.Credit = pointsPerCriterion
		}
		return c
	}
	c.Credit = pointsPerCriterion * clamp01((*actual-floor)/(threshold-floor))
	return c
}

// lowerIsBetter grants full credit at or below the threshold, falling
// linearly to zero at twice the threshold.
func lowerIsBetter(name string, actual *float64, threshold float64) models.CriterionResult {
	c := models.CriterionResult{Name: name, Threshold: threshold}
	if actual == nil {
		return c
	}
	c.Defined = true
	c.Actual = *actual
	c.Passed = *actual <= threshold
	c.Credit = pointsPerCriterion * clamp01((2*threshold-*actual)/threshold)
	return c
}

// bookValuePositive is a sign test with no partial-credit scale.
func bookValuePositive(bvps *float64) models.CriterionResult {
	c := models.CriterionResult{Name: models.CriterionBookValuePositive}
	if bvps == nil {
		return c
	}
	c.Defined = true
	c.Actual = *bvps
	if *bvps > 0 {
		c.Passed = true
		c.Credit = pointsPerCriterion
	}
	return c
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
