package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/types"
)

func curveRequest() types.CurveRequest {
	return types.CurveRequest{
		MinTVL:   1_000,
		MaxTVL:   100_000,
		Points:   50,
		Baseline: baselineYieldParams(),
	}
}

func TestGenerateCurveShape(t *testing.T) {
	req := curveRequest()
	points, err := GenerateCurve(req, config.DefaultModelParameters)
	require.NoError(t, err)
	require.Len(t, points, req.Points)

	assert.Equal(t, req.MinTVL, points[0].TVL)
	assert.InDelta(t, req.MaxTVL, points[len(points)-1].TVL, 1e-9)

	for i := 1; i < len(points); i++ {
		require.Greater(t, points[i].TVL, points[i-1].TVL)
		// Emission is TVL-independent, so spreading it over more capital
		// strictly dilutes the rate.
		require.Less(t, points[i].APR, points[i-1].APR)
	}

	for _, p := range points {
		require.GreaterOrEqual(t, p.APY, p.APR)
	}
}

func TestGenerateCurveFloorsMinTVL(t *testing.T) {
	req := curveRequest()
	req.MinTVL = 0

	points, err := GenerateCurve(req, config.DefaultModelParameters)
	require.NoError(t, err)
	assert.Equal(t, MinCurveTVL, points[0].TVL)
}

func TestGenerateCurveSinglePoint(t *testing.T) {
	req := curveRequest()
	req.Points = 1

	points, err := GenerateCurve(req, config.DefaultModelParameters)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, req.MinTVL, points[0].TVL)
}

func TestGenerateCurveRejectsInvalidRequests(t *testing.T) {
	params := config.DefaultModelParameters

	cases := []struct {
		name   string
		mutate func(*types.CurveRequest)
	}{
		{name: "zero points", mutate: func(r *types.CurveRequest) { r.Points = 0 }},
		{name: "negative points", mutate: func(r *types.CurveRequest) { r.Points = -5 }},
		{name: "NaN min", mutate: func(r *types.CurveRequest) { r.MinTVL = math.NaN() }},
		{name: "infinite max", mutate: func(r *types.CurveRequest) { r.MaxTVL = math.Inf(1) }},
		{name: "max below min", mutate: func(r *types.CurveRequest) { r.MinTVL = 5_000; r.MaxTVL = 1_000 }},
		{name: "max below floored min", mutate: func(r *types.CurveRequest) { r.MinTVL = 0; r.MaxTVL = 0.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := curveRequest()
			tc.mutate(&req)

			_, err := GenerateCurve(req, params)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCurveRequest)
		})
	}
}

func TestGenerateCurvePropagatesBaselineErrors(t *testing.T) {
	req := curveRequest()
	req.Baseline.UtilizationRate = 1.5

	_, err := GenerateCurve(req, config.DefaultModelParameters)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYieldParams)
}

func TestInspectPoint(t *testing.T) {
	params := config.DefaultModelParameters
	baseline := baselineYieldParams()

	inspection, err := InspectPoint(250_000, baseline, params)
	require.NoError(t, err)

	assert.Equal(t, 250_000.0, inspection.TVL)
	assert.Equal(t, baseline.UtilizationRate, inspection.Utilization)
	assert.Equal(t, BorrowRate(baseline.UtilizationRate, params), inspection.BorrowRate)

	sum := inspection.Breakdown.TradingFeeReward +
		inspection.Breakdown.BorrowingFeeReward +
		inspection.Breakdown.MinerEmission
	assert.InDelta(t, sum, inspection.Breakdown.TotalReward, 1e-9)
}

func TestInspectPointMatchesCurveSample(t *testing.T) {
	params := config.DefaultModelParameters
	req := curveRequest()

	points, err := GenerateCurve(req, params)
	require.NoError(t, err)

	inspection, err := InspectPoint(points[0].TVL, req.Baseline, params)
	require.NoError(t, err)

	assert.Equal(t, points[0].APR, inspection.Breakdown.APR)
	assert.Equal(t, points[0].APY, inspection.Breakdown.APY)
}
