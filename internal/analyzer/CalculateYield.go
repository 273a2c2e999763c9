/*

This file contains the core yield math: the kinked borrow curve, the daily
LP reward model and the APR/APY annualization derived from it.

*/

package analyzer

import (
	"errors"
	"math"

	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/types"
)

var ErrInvalidYieldParams = errors.New("invalid yield parameters")

var yieldLogger = logger.GetForComponent("yield_analyzer")

// daysPerYear is the annualization base shared by APR and APY.
const daysPerYear = 365.0

// BorrowRate evaluates the two-slope borrow curve at the given utilization.
// Below the kink the rate climbs from the base rate by Slope1; above it the
// remaining utilization range adds Slope2. The two branches meet exactly at
// the kink, so the curve is continuous.
//
// The model parameters are assumed validated; the function itself is total
// for any finite utilization.
func BorrowRate(utilization float64, params types.ModelParameters) float64 {
	if utilization <= params.Kink {
		return params.BaseBorrowingFee + utilization*params.Slope1/params.Kink
	}
	return params.BaseBorrowingFee + params.Slope1 +
		(utilization-params.Kink)*params.Slope2/(1.0-params.Kink)
}

// CalculateAprApy annualizes a daily reward earned on the given TVL. APR is
// simple interest, APY compounds daily. A non-positive TVL yields (0, 0)
// because there is no capital base to annualize against.
func CalculateAprApy(dailyReward, tvl float64) (apr, apy float64) {
	if tvl <= 0 {
		return 0, 0
	}
	dailyRate := dailyReward / tvl
	apr = dailyRate * daysPerYear
	apy = math.Pow(1.0+dailyRate, daysPerYear) - 1.0
	return apr, apy
}

// CalculateDailyRewards computes the three daily LP reward streams for one
// set of market inputs and annualizes the total.
// Inputs:
//   - input: The market snapshot: TVL, turnover, utilization, price, burn.
//   - params: The economic model constants.
//
// Output:
//   - A RewardBreakdown with the per-stream rewards, their sum and the
//     APR/APY the sum implies at the input TVL.
//   - An error if validation fails or a computation produces a non-finite
//     value.
func CalculateDailyRewards(input types.YieldParams, params types.ModelParameters) (types.RewardBreakdown, error) {
	if err := ValidateYieldParams(input); err != nil {
		yieldLogger.Error().
			Err(err).
			Float64("tvl", input.TVL).
			Msg("Yield parameter validation failed")
		return types.RewardBreakdown{}, errors.Join(ErrInvalidYieldParams, err)
	}
	if err := params.Validate(); err != nil {
		yieldLogger.Error().
			Err(err).
			Msg("Model parameter validation failed")
		return types.RewardBreakdown{}, err
	}

	// Trading fees: both swap directions charge the base fee on turnover,
	// and only the LP slice of the trading share lands in the pot.
	trading := input.TVL * input.TurnoverRate * params.BaseTradingFee * 2.0 *
		params.TradingFeeShare * params.LPFeeShare

	// Borrowing fees: the per-epoch kinked rate applied to the borrowed
	// share of TVL, compounded over every epoch of the day.
	rate := BorrowRate(input.UtilizationRate, params)
	borrowing := input.TVL * input.UtilizationRate * rate *
		params.BorrowingFeeShare * params.LPFeeShare * params.EpochsPerDay

	// Miner emission: the miner share of daily block emission valued at the
	// alpha price, reduced by the burned fraction. The burn factor is
	// clamped so out-of-range percentages degrade instead of exploding.
	burnFactor := 1.0 - input.BurnPercentage/100.0
	if burnFactor < 0 {
		burnFactor = 0
	}
	if burnFactor > 1 {
		burnFactor = 1
	}
	emission := input.Price * params.DailyBlocks * params.MinerEmissionShare * burnFactor

	total := trading + borrowing + emission

	components := []struct {
		value float64
		name  string
	}{
		{trading, "trading fee reward"},
		{borrowing, "borrowing fee reward"},
		{emission, "miner emission reward"},
		{total, "total reward"},
	}
	for _, comp := range components {
		if math.IsNaN(comp.value) || math.IsInf(comp.value, 0) {
			yieldLogger.Error().
				Float64("componentValue", comp.value).
				Str("componentName", comp.name).
				Msg("Reward calculation resulted in invalid value")
			return types.RewardBreakdown{}, errors.New(comp.name + " calculation resulted in NaN or Inf")
		}
	}

	apr, apy := CalculateAprApy(total, input.TVL)
	if math.IsNaN(apr) || math.IsInf(apr, 0) || math.IsNaN(apy) || math.IsInf(apy, 0) {
		return types.RewardBreakdown{}, errors.New("annualization resulted in NaN or Inf")
	}

	yieldLogger.Debug().
		Float64("tvl", input.TVL).
		Float64("turnoverRate", input.TurnoverRate).
		Float64("utilizationRate", input.UtilizationRate).
		Float64("borrowRate", rate).
		Float64("tradingFeeReward", trading).
		Float64("borrowingFeeReward", borrowing).
		Float64("minerEmission", emission).
		Float64("totalReward", total).
		Float64("apr", apr).
		Float64("apy", apy).
		Msg("Daily rewards calculated")

	return types.RewardBreakdown{
		TradingFeeReward:   trading,
		BorrowingFeeReward: borrowing,
		MinerEmission:      emission,
		TotalReward:        total,
		APR:                apr,
		APY:                apy,
	}, nil
}

// ValidateYieldParams checks that the market inputs are finite and within
// their documented domains.
func ValidateYieldParams(input types.YieldParams) error {
	fields := []struct {
		value float64
		name  string
	}{
		{input.TVL, "tvl"},
		{input.TurnoverRate, "turnover rate"},
		{input.UtilizationRate, "utilization rate"},
		{input.Price, "price"},
		{input.BurnPercentage, "burn percentage"},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.New(f.name + " must be finite")
		}
	}

	if input.TVL < 0 {
		return errors.New("tvl cannot be negative")
	}
	if input.TurnoverRate < 0 {
		return errors.New("turnover rate cannot be negative")
	}
	if input.UtilizationRate < 0 || input.UtilizationRate > 1 {
		return errors.New("utilization rate must be between 0 and 1")
	}
	if input.Price < 0 {
		return errors.New("price cannot be negative")
	}

	return nil
}
