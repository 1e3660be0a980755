package screen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
	"github.com/bobmcallan/graham/internal/valuation"
)

func newTestEngine() *Engine {
	cfg := common.NewDefaultConfig()
	return NewEngine(cfg.Valuation, cfg.Screen)
}

// deepValueStatement builds a statement that clears every criterion at a
// low enough price: seven years of steady earnings, a liquid balance sheet
// and positive net current asset value.
func deepValueStatement() *models.FinancialStatement {
	periods := make([]models.FinancialPeriod, 7)
	for i := range periods {
		periods[i] = models.FinancialPeriod{
			FiscalDate:        fmt.Sprintf("%d-12-31", 2018+i),
			NetIncome:         100,
			SharesOutstanding: 100,
		}
	}
	periods[6].CurrentAssets = 500
	periods[6].CurrentLiabilities = 100
	periods[6].TotalLiabilities = 200
	periods[6].TotalDebt = 50
	periods[6].ShareholderEquity = 400
	return &models.FinancialStatement{Ticker: "DEEP", Periods: periods}
}

func TestEvaluateQualifier(t *testing.T) {
	e := newTestEngine()

	result, err := e.Evaluate("DEEP", deepValueStatement(), 2.0)
	require.NoError(t, err)

	assert.True(t, result.Qualifies)
	assert.InDelta(t, 100.0, result.CompositeScore, 0.01)
	assert.Len(t, result.Criteria, 8)
	for _, c := range result.Criteria {
		assert.True(t, c.Passed, c.Name)
	}

	require.NotNil(t, result.IntrinsicValue)
	// epv 10.00, asset 3.00 (NCAV 300 over 100 shares), dcf 8.33
	assert.InDelta(t, 7.13, *result.IntrinsicValue, 0.01)
	assert.InDelta(t, 1.0, result.Confidence, 0.0001)

	require.NotNil(t, result.MarginOfSafety)
	assert.Greater(t, *result.MarginOfSafety, 0.5)
}

func TestEvaluateOverpricedGrowthStock(t *testing.T) {
	e := newTestEngine()

	// Weak liquidity and a rich multiple: current ratio 0.87, P/E 37.15.
	periods := make([]models.FinancialPeriod, 7)
	for i := range periods {
		periods[i] = models.FinancialPeriod{
			FiscalDate:        fmt.Sprintf("%d-12-31", 2018+i),
			NetIncome:         100,
			SharesOutstanding: 100,
		}
	}
	periods[6].CurrentAssets = 87
	periods[6].CurrentLiabilities = 100
	periods[6].TotalLiabilities = 150
	periods[6].TotalDebt = 10
	periods[6].ShareholderEquity = 500
	stmt := &models.FinancialStatement{Ticker: "GROW", Periods: periods}

	result, err := e.Evaluate("GROW", stmt, 37.15)
	require.NoError(t, err)

	assert.False(t, result.Qualifies)

	cr := result.Criterion(models.CriterionCurrentRatio)
	require.NotNil(t, cr)
	assert.False(t, cr.Passed)
	assert.InDelta(t, 0.87, cr.Actual, 0.001)
	assert.InDelta(t, 0.0, cr.Credit, 0.0001) // below the 1.0 floor

	pe := result.Criterion(models.CriterionPE)
	require.NotNil(t, pe)
	assert.False(t, pe.Passed)
	assert.InDelta(t, 37.15, pe.Actual, 0.001)
	assert.InDelta(t, 0.0, pe.Credit, 0.0001) // beyond twice the threshold

	mos := result.Criterion(models.CriterionMarginOfSafety)
	require.NotNil(t, mos)
	assert.False(t, mos.Passed)
	assert.InDelta(t, 0.0, mos.Credit, 0.0001)
	require.NotNil(t, result.MarginOfSafety)
	assert.Less(t, *result.MarginOfSafety, 0.0)
}

func TestEvaluatePartialCredit(t *testing.T) {
	e := newTestEngine()

	stmt := deepValueStatement()
	stmt.Periods[6].CurrentAssets = 150 // ratio 1.5, halfway between floor and threshold
	stmt.Periods[6].TotalLiabilities = 100

	result, err := e.Evaluate("PART", stmt, 2.0)
	require.NoError(t, err)

	cr := result.Criterion(models.CriterionCurrentRatio)
	require.NotNil(t, cr)
	assert.False(t, cr.Passed)
	assert.InDelta(t, 6.25, cr.Credit, 0.001)
	assert.False(t, result.Qualifies)
	assert.Less(t, result.CompositeScore, 100.0)
}

func TestEvaluateUndefinedRatiosFail(t *testing.T) {
	e := newTestEngine()

	// No shares outstanding: EPS, BVPS and the price multiples are all
	// undefined and their criteria must fail rather than be skipped.
	periods := []models.FinancialPeriod{
		{FiscalDate: "2022-12-31", NetIncome: 100},
		{FiscalDate: "2023-12-31", NetIncome: 100},
		{FiscalDate: "2024-12-31", NetIncome: 100, CurrentAssets: 500, CurrentLiabilities: 100, TotalLiabilities: 200, ShareholderEquity: 400},
	}
	stmt := &models.FinancialStatement{Ticker: "NOSH", Periods: periods}

	result, err := e.Evaluate("NOSH", stmt, 10.0)
	require.NoError(t, err)

	assert.False(t, result.Qualifies)
	for _, name := range []string{
		models.CriterionPE,
		models.CriterionPB,
		models.CriterionPEtimesPB,
		models.CriterionBookValuePositive,
	} {
		c := result.Criterion(name)
		require.NotNil(t, c, name)
		assert.False(t, c.Defined, name)
		assert.False(t, c.Passed, name)
		assert.InDelta(t, 0.0, c.Credit, 0.0001, name)
	}
	assert.Len(t, result.Criteria, 8)
}

func TestEvaluateTriangulationFailure(t *testing.T) {
	e := newTestEngine()

	// Loss-making with nothing on the balance sheet: every method is
	// undefined, but evaluation still returns a complete result.
	periods := make([]models.FinancialPeriod, 5)
	for i := range periods {
		periods[i] = models.FinancialPeriod{
			FiscalDate:        fmt.Sprintf("%d-12-31", 2020+i),
			NetIncome:         -50,
			SharesOutstanding: 100,
		}
	}
	stmt := &models.FinancialStatement{Ticker: "LOSS", Periods: periods}

	result, err := e.Evaluate("LOSS", stmt, 5.0)
	require.NoError(t, err)

	assert.Nil(t, result.IntrinsicValue)
	assert.Nil(t, result.MarginOfSafety)
	assert.InDelta(t, 0.0, result.Confidence, 0.0001)
	assert.False(t, result.Qualifies)

	mos := result.Criterion(models.CriterionMarginOfSafety)
	require.NotNil(t, mos)
	assert.False(t, mos.Defined)
	assert.False(t, mos.Passed)
}

func TestEvaluateNoPeriods(t *testing.T) {
	e := newTestEngine()

	_, err := e.Evaluate("EMPTY", &models.FinancialStatement{Ticker: "EMPTY"}, 5.0)
	assert.True(t, errors.Is(err, valuation.ErrInsufficientData))

	_, err = e.Evaluate("NILSTMT", nil, 5.0)
	assert.True(t, errors.Is(err, valuation.ErrInsufficientData))
}

func TestEvaluateDeterministic(t *testing.T) {
	e := newTestEngine()
	stmt := deepValueStatement()

	first, err := e.Evaluate("DEEP", stmt, 2.0)
	require.NoError(t, err)
	second, err := e.Evaluate("DEEP", stmt, 2.0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPositiveEarningsStreakCountsFromLatest(t *testing.T) {
	e := newTestEngine()

	// A loss three years ago resets the streak to the two newest years.
	periods := []models.FinancialPeriod{
		{FiscalDate: "2020-12-31", NetIncome: 100, SharesOutstanding: 100},
		{FiscalDate: "2021-12-31", NetIncome: 100, SharesOutstanding: 100},
		{FiscalDate: "2022-12-31", NetIncome: -10, SharesOutstanding: 100},
		{FiscalDate: "2023-12-31", NetIncome: 100, SharesOutstanding: 100},
		{FiscalDate: "2024-12-31", NetIncome: 100, SharesOutstanding: 100, CurrentAssets: 500, CurrentLiabilities: 100, TotalLiabilities: 200, ShareholderEquity: 400},
	}
	stmt := &models.FinancialStatement{Ticker: "STRK", Periods: periods}

	result, err := e.Evaluate("STRK", stmt, 2.0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metrics.PositiveEarningsYears)

	streak := result.Criterion(models.CriterionPositiveEarnYears)
	require.NotNil(t, streak)
	assert.False(t, streak.Passed)
	// 2 of the required 5 years: 12.5 * 2/5
	assert.InDelta(t, 5.0, streak.Credit, 0.001)
}
