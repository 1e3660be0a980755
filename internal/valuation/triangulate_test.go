package valuation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/graham/internal/common"
	"github.com/bobmcallan/graham/internal/models"
)

func TestTriangulateAllMethods(t *testing.T) {
	v := defaultValuator()

	estimates := []models.MethodEstimate{
		{Method: models.MethodEPV, Value: ptr(16.80)},
		{Method: models.MethodAsset, Value: ptr(2.00)},
		{Method: models.MethodDCF, Value: ptr(25.00)},
	}

	tri, err := v.Triangulate(estimates)
	require.NoError(t, err)

	// 16.80*0.40 + 2.00*0.35 + 25.00*0.25
	assert.InDelta(t, 13.67, tri.Value, 0.01)
	assert.InDelta(t, 1.0, tri.Confidence, 0.0001)
	assert.Equal(t, []string{"epv", "asset", "dcf"}, tri.Methods)
}

func TestTriangulateDropoutRedistributesWeight(t *testing.T) {
	v := defaultValuator()

	estimates := []models.MethodEstimate{
		{Method: models.MethodEPV, Value: ptr(10.0)},
		{Method: models.MethodAsset},
		{Method: models.MethodDCF, Value: ptr(20.0)},
	}

	tri, err := v.Triangulate(estimates)
	require.NoError(t, err)

	// (0.40*10 + 0.25*20) / 0.65
	assert.InDelta(t, 13.846, tri.Value, 0.001)
	assert.InDelta(t, 0.65, tri.Confidence, 0.0001)
	assert.Equal(t, []string{"epv", "dcf"}, tri.Methods)
}

func TestTriangulateSingleSurvivor(t *testing.T) {
	v := defaultValuator()

	estimates := []models.MethodEstimate{
		{Method: models.MethodEPV},
		{Method: models.MethodAsset, Value: ptr(3.0)},
		{Method: models.MethodDCF},
	}

	tri, err := v.Triangulate(estimates)
	require.NoError(t, err)

	// Collapses to the surviving method's value with reduced confidence.
	assert.InDelta(t, 3.0, tri.Value, 0.0001)
	assert.InDelta(t, 0.35, tri.Confidence, 0.0001)
	assert.Less(t, tri.Confidence, 1.0)
	assert.Equal(t, []string{"asset"}, tri.Methods)
}

func TestTriangulateAllMethodsFailed(t *testing.T) {
	v := defaultValuator()

	estimates := []models.MethodEstimate{
		{Method: models.MethodEPV},
		{Method: models.MethodAsset},
		{Method: models.MethodDCF},
	}

	_, err := v.Triangulate(estimates)
	assert.True(t, errors.Is(err, ErrAllMethodsFailed))
}

func TestTriangulateCustomWeights(t *testing.T) {
	cfg := defaultValuator().cfg
	cfg.Weights = common.TriangulationWeights{EPV: 2, Asset: 1, DCF: 1}
	v := NewValuator(cfg)

	estimates := []models.MethodEstimate{
		{Method: models.MethodEPV, Value: ptr(10.0)},
		{Method: models.MethodAsset, Value: ptr(20.0)},
	}

	tri, err := v.Triangulate(estimates)
	require.NoError(t, err)

	// (2*10 + 1*20) / 3; dcf's quarter of total weight dropped out
	assert.InDelta(t, 13.333, tri.Value, 0.001)
	assert.InDelta(t, 0.75, tri.Confidence, 0.0001)
}
