package valuation

import (
	"github.com/bobmcallan/graham/internal/models"
)

// Triangulate blends the surviving method estimates into one intrinsic
// value. Undefined estimates drop out and their weight is redistributed
// across the survivors; confidence is the surviving fraction of total
// weight, so every dropout lowers it. All methods undefined returns
// ErrAllMethodsFailed.
func (v *Valuator) Triangulate(estimates []models.MethodEstimate) (*models.TriangulatedValue, error) {
	weights := map[string]float64{
		models.MethodEPV:   v.cfg.Weights.EPV,
		models.MethodAsset: v.cfg.Weights.Asset,
		models.MethodDCF:   v.cfg.Weights.DCF,
	}
	totalWeight := v.cfg.Weights.Sum()

	var (
		weightedSum     float64
		survivingWeight float64
		methods         []string
	)
	for _, est := range estimates {
		w, ok := weights[est.Method]
		if !ok || !est.Defined() {
			continue
		}
		weightedSum += w * (*est.Value)
		survivingWeight += w
		methods = append(methods, est.Method)
	}

	if survivingWeight <= 0 {
		return nil, ErrAllMethodsFailed
	}

	return &models.TriangulatedValue{
		Value:      weightedSum / survivingWeight,
		Confidence: survivingWeight / totalWeight,
		Methods:    methods,
	}, nil
}
