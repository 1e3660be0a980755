package valuation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/graham/internal/models"
)

func TestAssetValue(t *testing.T) {
	v := defaultValuator()

	tests := []struct {
		name     string
		latest   models.FinancialPeriod
		expected float64
	}{
		{
			name: "positive NCAV per share",
			latest: models.FinancialPeriod{
				CurrentAssets:     500,
				TotalLiabilities:  200,
				SharesOutstanding: 100,
			},
			expected: 3.0,
		},
		{
			name: "NCAV wins even when tangible book is larger",
			latest: models.FinancialPeriod{
				CurrentAssets:     500,
				TotalLiabilities:  200,
				ShareholderEquity: 1000,
				SharesOutstanding: 100,
			},
			expected: 3.0,
		},
		{
			name: "tangible book with haircut when NCAV negative",
			latest: models.FinancialPeriod{
				CurrentAssets:     100,
				TotalLiabilities:  200,
				ShareholderEquity: 300,
				Intangibles:       50,
				Goodwill:          50,
				SharesOutstanding: 100,
			},
			expected: 1.6, // (300-50-50) * 0.80 / 100
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := &models.FinancialStatement{
				Ticker:  "TEST",
				Periods: []models.FinancialPeriod{tt.latest},
			}
			est, err := v.AssetValue(stmt)
			require.NoError(t, err)
			require.True(t, est.Defined())
			assert.InDelta(t, tt.expected, *est.Value, 0.001)
		})
	}
}

func TestAssetValueUndefined(t *testing.T) {
	v := defaultValuator()

	tests := []struct {
		name   string
		latest models.FinancialPeriod
	}{
		{
			name: "no net current assets and no tangible book",
			latest: models.FinancialPeriod{
				CurrentAssets:     100,
				TotalLiabilities:  200,
				ShareholderEquity: 50,
				Intangibles:       100,
				SharesOutstanding: 100,
			},
		},
		{
			name: "zero shares outstanding",
			latest: models.FinancialPeriod{
				CurrentAssets:    500,
				TotalLiabilities: 200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := &models.FinancialStatement{
				Ticker:  "TEST",
				Periods: []models.FinancialPeriod{tt.latest},
			}
			est, err := v.AssetValue(stmt)
			assert.NoError(t, err)
			assert.False(t, est.Defined())
		})
	}
}

func TestAssetValueNoPeriods(t *testing.T) {
	v := defaultValuator()

	_, err := v.AssetValue(&models.FinancialStatement{Ticker: "TEST"})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
