package valuation

import (
	"fmt"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
)

// defaultValuator builds a Valuator with the stock conservative defaults.
func defaultValuator() *Valuator {
	return NewValuator(common.NewDefaultConfig().Valuation)
}

// stmtFromEarnings builds a statement whose owner earnings equal the given
// values exactly: net income only, no depreciation, capex or working
// capital, so every adjustment is zero.
func stmtFromEarnings(values []float64, shares float64) *models.FinancialStatement {
	periods := make([]models.FinancialPeriod, len(values))
	year := 2024 - len(values) + 1
	for i, v := range values {
		periods[i] = models.FinancialPeriod{
			FiscalDate:        fmt.Sprintf("%d-12-31", year+i),
			NetIncome:         v,
			SharesOutstanding: shares,
		}
	}
	return &models.FinancialStatement{Ticker: "TEST", Periods: periods}
}
