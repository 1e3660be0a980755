package valuation

import (
	"fmt"

	"github.com/bobmcallan/graham/internal/models"
)

// AssetValue estimates liquidation-style per-share value from the latest
// balance sheet. Positive net current asset value (current assets minus
// total liabilities) is used as-is; otherwise tangible book value less the
// asset haircut. Neither positive yields an undefined estimate.
func (v *Valuator) AssetValue(stmt *models.FinancialStatement) (models.MethodEstimate, error) {
	est := models.MethodEstimate{Method: models.MethodAsset}

	latest := stmt.Latest()
	if latest == nil {
		return est, fmt.Errorf("asset value requires a balance sheet: %w", ErrInsufficientData)
	}

	shares := latest.SharesOutstanding
	if shares <= 0 {
		est.Detail = "no shares outstanding"
		return est, nil
	}

	ncav := latest.CurrentAssets - latest.TotalLiabilities
	if ncav > 0 {
		est.Value = ptr(ncav / shares)
		est.Detail = fmt.Sprintf("net current asset value %.2f", ncav)
		return est, nil
	}

	tangible := latest.ShareholderEquity - latest.Intangibles - latest.Goodwill
	if tangible > 0 {
		discounted := tangible * (1 - v.cfg.AssetHaircut)
		est.Value = ptr(discounted / shares)
		est.Detail = fmt.Sprintf("tangible book %.2f less %.0f%% haircut", tangible, v.cfg.AssetHaircut*100)
		return est, nil
	}

	est.Detail = "no net current assets or tangible book value"
	return est, nil
}
