package valuation

import (
	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
)

// Valuator computes conservative per-share value estimates from statement
// history. Construct with a validated ValuationConfig; the config is copied
// and never mutated.
type Valuator struct {
	cfg common.ValuationConfig
}

// NewValuator creates a Valuator from validated valuation parameters.
func NewValuator(cfg common.ValuationConfig) *Valuator {
	return &Valuator{cfg: cfg}
}

// EstimateAll runs the three valuation methods and returns their estimates
// in canonical order (epv, asset, dcf). A method that lacks data contributes
// an undefined estimate rather than aborting the others.
func (v *Valuator) EstimateAll(stmt *models.FinancialStatement) []models.MethodEstimate {
	estimates := make([]models.MethodEstimate, 0, 3)

	epv, err := v.EarningsPowerValue(stmt)
	if err != nil {
		epv = models.MethodEstimate{Method: models.MethodEPV, Detail: err.Error()}
	}
	estimates = append(estimates, epv)

	asset, err := v.AssetValue(stmt)
	if err != nil {
		asset = models.MethodEstimate{Method: models.MethodAsset, Detail: err.Error()}
	}
	estimates = append(estimates, asset)

	dcf, err := v.ConservativeDCF(stmt)
	if err != nil {
		dcf = models.MethodEstimate{Method: models.MethodDCF, Detail: err.Error()}
	}
	estimates = append(estimates, dcf)

	return estimates
}

// latestShares returns the most recent shares outstanding, or 0.
func latestShares(stmt *models.FinancialStatement) float64 {
	p := stmt.Latest()
	if p == nil {
		return 0
	}
	return p.SharesOutstanding
}

func ptr(v float64) *float64 {
	return &v
}
