package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/types"
)

func baselineYieldParams() types.YieldParams {
	return types.YieldParams{
		TVL:             100_000,
		TurnoverRate:    0.05,
		UtilizationRate: 0.4,
		Price:           0.05,
		BurnPercentage:  0,
	}
}

func TestBorrowRatePinnedValues(t *testing.T) {
	params := config.DefaultModelParameters

	cases := []struct {
		name        string
		utilization float64
		want        float64
	}{
		{name: "zero utilization", utilization: 0.0, want: 0.00005},
		{name: "mid first slope", utilization: 0.4, want: 0.000125},
		{name: "at the kink", utilization: 0.8, want: 0.0002},
		{name: "mid second slope", utilization: 0.9, want: 0.0006},
		{name: "full utilization", utilization: 1.0, want: 0.001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, BorrowRate(tc.utilization, params), 1e-15)
		})
	}
}

func TestBorrowRateContinuousAtKink(t *testing.T) {
	params := config.DefaultModelParameters

	below := BorrowRate(params.Kink-1e-9, params)
	at := BorrowRate(params.Kink, params)
	above := BorrowRate(params.Kink+1e-9, params)

	assert.InDelta(t, at, below, 1e-9)
	assert.InDelta(t, at, above, 1e-9)
	assert.InDelta(t, params.BaseBorrowingFee+params.Slope1, at, 1e-15)
}

func TestBorrowRateMonotonic(t *testing.T) {
	params := config.DefaultModelParameters

	prev := BorrowRate(0, params)
	for u := 0.01; u <= 1.0+1e-12; u += 0.01 {
		rate := BorrowRate(u, params)
		require.GreaterOrEqual(t, rate, prev, "rate decreased at utilization %.2f", u)
		prev = rate
	}
}

func TestCalculateDailyRewardsPinnedCase(t *testing.T) {
	breakdown, err := CalculateDailyRewards(baselineYieldParams(), config.DefaultModelParameters)
	require.NoError(t, err)

	// Hand-computed from the default constants at TVL 100k, 5% turnover,
	// 40% utilization, price 0.05 and no burn.
	assert.InDelta(t, 7.875, breakdown.TradingFeeReward, 1e-9)
	assert.InDelta(t, 30.625, breakdown.BorrowingFeeReward, 1e-9)
	assert.InDelta(t, 147.6, breakdown.MinerEmission, 1e-9)
	assert.InDelta(t, 186.1, breakdown.TotalReward, 1e-9)

	dailyRate := 186.1 / 100_000
	assert.InDelta(t, dailyRate*365, breakdown.APR, 1e-12)
	assert.InDelta(t, math.Pow(1+dailyRate, 365)-1, breakdown.APY, 1e-12)
}

func TestCalculateDailyRewardsZeroTVL(t *testing.T) {
	input := baselineYieldParams()
	input.TVL = 0

	breakdown, err := CalculateDailyRewards(input, config.DefaultModelParameters)
	require.NoError(t, err)

	// Emission does not depend on TVL, but there is no capital base to
	// annualize it against.
	assert.Zero(t, breakdown.TradingFeeReward)
	assert.Zero(t, breakdown.BorrowingFeeReward)
	assert.InDelta(t, 147.6, breakdown.MinerEmission, 1e-9)
	assert.Zero(t, breakdown.APR)
	assert.Zero(t, breakdown.APY)
}

func TestCalculateDailyRewardsBurnClamp(t *testing.T) {
	params := config.DefaultModelParameters

	t.Run("burn above 100 zeroes emission", func(t *testing.T) {
		input := baselineYieldParams()
		input.BurnPercentage = 150
		breakdown, err := CalculateDailyRewards(input, params)
		require.NoError(t, err)
		assert.Zero(t, breakdown.MinerEmission)
	})

	t.Run("negative burn behaves like zero burn", func(t *testing.T) {
		input := baselineYieldParams()
		input.BurnPercentage = -20
		withNegative, err := CalculateDailyRewards(input, params)
		require.NoError(t, err)

		input.BurnPercentage = 0
		withZero, err := CalculateDailyRewards(input, params)
		require.NoError(t, err)

		assert.Equal(t, withZero.MinerEmission, withNegative.MinerEmission)
	})

	t.Run("partial burn scales emission linearly", func(t *testing.T) {
		input := baselineYieldParams()
		input.BurnPercentage = 25
		breakdown, err := CalculateDailyRewards(input, params)
		require.NoError(t, err)
		assert.InDelta(t, 147.6*0.75, breakdown.MinerEmission, 1e-9)
	})
}

func TestCalculateAprApy(t *testing.T) {
	t.Run("non-positive tvl yields zero rates", func(t *testing.T) {
		for _, tvl := range []float64{0, -100} {
			apr, apy := CalculateAprApy(50, tvl)
			assert.Zero(t, apr)
			assert.Zero(t, apy)
		}
	})

	t.Run("compounding never loses to simple interest", func(t *testing.T) {
		for _, daily := range []float64{0, 1, 50, 500} {
			apr, apy := CalculateAprApy(daily, 100_000)
			assert.GreaterOrEqual(t, apy, apr, "daily reward %.0f", daily)
		}
	})

	t.Run("zero reward yields zero rates", func(t *testing.T) {
		apr, apy := CalculateAprApy(0, 100_000)
		assert.Zero(t, apr)
		assert.Zero(t, apy)
	})
}

func TestCalculateDailyRewardsRejectsInvalidInput(t *testing.T) {
	params := config.DefaultModelParameters

	cases := []struct {
		name   string
		mutate func(*types.YieldParams)
	}{
		{name: "NaN tvl", mutate: func(p *types.YieldParams) { p.TVL = math.NaN() }},
		{name: "infinite price", mutate: func(p *types.YieldParams) { p.Price = math.Inf(1) }},
		{name: "negative tvl", mutate: func(p *types.YieldParams) { p.TVL = -1 }},
		{name: "negative turnover", mutate: func(p *types.YieldParams) { p.TurnoverRate = -0.1 }},
		{name: "negative price", mutate: func(p *types.YieldParams) { p.Price = -0.01 }},
		{name: "utilization below zero", mutate: func(p *types.YieldParams) { p.UtilizationRate = -0.1 }},
		{name: "utilization above one", mutate: func(p *types.YieldParams) { p.UtilizationRate = 1.1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := baselineYieldParams()
			tc.mutate(&input)

			_, err := CalculateDailyRewards(input, params)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidYieldParams)
		})
	}
}

func TestCalculateDailyRewardsRejectsInvalidModelParameters(t *testing.T) {
	params := config.DefaultModelParameters
	params.Kink = 0

	_, err := CalculateDailyRewards(baselineYieldParams(), params)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidModelParameters)
}
