/*

This file contains the curve sweep over a TVL range and the single-point
inspection built on top of the daily reward model.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/subtensor-labs/taosim/internal/types"
)

var ErrInvalidCurveRequest = errors.New("invalid curve request")

// MinCurveTVL is the floor applied to the sweep's lower bound. TVL values
// below one TAO produce annualization artifacts, so the curve never samples
// them.
const MinCurveTVL = 1.0

// GenerateCurve evaluates the reward model across an evenly spaced TVL range
// and returns one point per sample, both endpoints included. The baseline
// supplies every input except TVL, which the sweep overrides.
func GenerateCurve(req types.CurveRequest, params types.ModelParameters) ([]types.CurvePoint, error) {
	if err := validateCurveRequest(req); err != nil {
		yieldLogger.Error().
			Err(err).
			Float64("minTVL", req.MinTVL).
			Float64("maxTVL", req.MaxTVL).
			Int("points", req.Points).
			Msg("Curve request validation failed")
		return nil, errors.Join(ErrInvalidCurveRequest, err)
	}

	minTVL := math.Max(MinCurveTVL, req.MinTVL)
	maxTVL := req.MaxTVL
	if maxTVL < minTVL {
		return nil, fmt.Errorf("%w: max TVL %.4f is below effective min TVL %.4f",
			ErrInvalidCurveRequest, maxTVL, minTVL)
	}

	points := make([]types.CurvePoint, 0, req.Points)
	for i := 0; i < req.Points; i++ {
		tvl := minTVL
		if req.Points > 1 {
			tvl = minTVL + (maxTVL-minTVL)*float64(i)/float64(req.Points-1)
		}

		input := req.Baseline
		input.TVL = tvl
		breakdown, err := CalculateDailyRewards(input, params)
		if err != nil {
			return nil, fmt.Errorf("curve point %d at TVL %.4f: %w", i, tvl, err)
		}

		points = append(points, types.CurvePoint{
			TVL: tvl,
			APR: breakdown.APR,
			APY: breakdown.APY,
		})
	}

	yieldLogger.Debug().
		Int("points", len(points)).
		Float64("minTVL", minTVL).
		Float64("maxTVL", maxTVL).
		Msg("Yield curve generated")

	return points, nil
}

// InspectPoint evaluates the reward model at one TVL and reports the borrow
// curve position alongside the full breakdown.
func InspectPoint(tvl float64, baseline types.YieldParams, params types.ModelParameters) (types.YieldInspection, error) {
	input := baseline
	input.TVL = tvl

	breakdown, err := CalculateDailyRewards(input, params)
	if err != nil {
		return types.YieldInspection{}, err
	}

	return types.YieldInspection{
		TVL:         tvl,
		Utilization: input.UtilizationRate,
		BorrowRate:  BorrowRate(input.UtilizationRate, params),
		Breakdown:   breakdown,
	}, nil
}

func validateCurveRequest(req types.CurveRequest) error {
	if math.IsNaN(req.MinTVL) || math.IsInf(req.MinTVL, 0) {
		return errors.New("min TVL must be finite")
	}
	if math.IsNaN(req.MaxTVL) || math.IsInf(req.MaxTVL, 0) {
		return errors.New("max TVL must be finite")
	}
	if req.Points <= 0 {
		return errors.New("points must be positive")
	}
	return nil
}
