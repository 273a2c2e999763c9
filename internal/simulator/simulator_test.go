package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtensor-labs/taosim/internal/amm"
	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/types"
)

func testReserves() types.PoolReserves {
	return types.PoolReserves{Tao: 10_000, Alpha: 200_000}
}

func quietPool() types.SimulationParams {
	return types.SimulationParams{
		Days:            5,
		InitialReserves: testReserves(),
	}
}

func whaleRun() types.SimulationParams {
	return types.SimulationParams{
		Days:             15,
		InitialReserves:  testReserves(),
		WhaleDailyBuyTao: 300,
		BuyDays:          10,
		IncludeBuyback:   true,
	}
}

func TestRunIsDeterministic(t *testing.T) {
	params := whaleRun()
	model := config.DefaultModelParameters

	first, err := Run(params, model)
	require.NoError(t, err)
	second, err := Run(params, model)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRunRecordSequence(t *testing.T) {
	records, err := Run(whaleRun(), config.DefaultModelParameters)
	require.NoError(t, err)
	require.Len(t, records, 15)

	for i, rec := range records {
		require.Equal(t, i, rec.Day)
		require.Greater(t, rec.TaoReserve, 0.0)
		require.Greater(t, rec.AlphaReserve, 0.0)
		require.InDelta(t, rec.TaoReserve/rec.AlphaReserve, rec.Price, 1e-12)
	}
}

func TestRunQuietPool(t *testing.T) {
	// No whale and no buyback: emission at the snapshot price leaves the
	// price untouched, so only the miner sell flow moves it, downwards.
	records, err := Run(quietPool(), config.DefaultModelParameters)
	require.NoError(t, err)

	prevTao := testReserves().Tao
	prevAlpha := testReserves().Alpha
	prevPrice := testReserves().Price()
	for _, rec := range records {
		assert.Zero(t, rec.WhaleAlpha)
		assert.Zero(t, rec.WhaleTaoSpent)
		assert.Zero(t, rec.WhaleTaoValue)

		require.Greater(t, rec.TaoReserve, prevTao)
		require.Greater(t, rec.AlphaReserve, prevAlpha)
		require.Less(t, rec.Price, prevPrice)
		prevTao = rec.TaoReserve
		prevAlpha = rec.AlphaReserve
		prevPrice = rec.Price
	}
}

func TestRunEmissionHalving(t *testing.T) {
	model := config.DefaultModelParameters
	model.EmissionHalvingDay = 2

	params := quietPool()
	params.Days = 4

	records, err := Run(params, model)
	require.NoError(t, err)

	// The alpha side grows by emission plus the miner sell input, both of
	// which are exact additions, so the per-day deltas can be pinned.
	deltas := alphaDeltas(params.InitialReserves.Alpha, records)
	assert.InDelta(t, 7200+7200*0.41*0.50, deltas[0], 1e-6)
	assert.InDelta(t, 7200+7200*0.41*0.49, deltas[1], 1e-6)
	assert.InDelta(t, 3600+7200*0.41*0.48, deltas[2], 1e-6)
	assert.InDelta(t, 3600+7200*0.41*0.47, deltas[3], 1e-6)
}

func TestRunMinerSellFloor(t *testing.T) {
	model := config.DefaultModelParameters
	model.EmissionHalvingDay = 1000
	model.MinerSellStart = 0.5
	model.MinerSellDecayPerDay = 0.1
	model.MinerSellFloor = 0.3

	params := quietPool()
	params.Days = 4

	records, err := Run(params, model)
	require.NoError(t, err)

	deltas := alphaDeltas(params.InitialReserves.Alpha, records)
	// Decay reaches the floor on day 2 and stays there.
	assert.Greater(t, deltas[1], deltas[2])
	assert.InDelta(t, deltas[2], deltas[3], 1e-9)
	assert.InDelta(t, 7200+7200*0.41*0.3, deltas[3], 1e-6)
}

func TestRunWhaleBuyPhase(t *testing.T) {
	params := whaleRun()
	params.IncludeBuyback = false

	records, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	// Day 0 buys 300 TAO into a 10k/200k pool.
	assert.InDelta(t, 200_000-2e9/10_300, records[0].WhaleAlpha, 1e-6)

	for i, rec := range records {
		if i < params.BuyDays {
			assert.InDelta(t, 300*float64(i+1), rec.WhaleTaoSpent, 1e-9)
			if i > 0 {
				require.Greater(t, rec.WhaleAlpha, records[i-1].WhaleAlpha)
			}
		} else {
			assert.InDelta(t, 3000, rec.WhaleTaoSpent, 1e-9)
			assert.Equal(t, records[params.BuyDays-1].WhaleAlpha, rec.WhaleAlpha)
		}
		require.Greater(t, rec.WhaleTaoValue, 0.0)
	}
}

func TestRunBuybackRaisesPrice(t *testing.T) {
	params := quietPool()
	params.Days = 3

	without, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	params.IncludeBuyback = true
	with, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	for i := range with {
		require.Greater(t, with[i].Price, without[i].Price, "day %d", i)
	}
}

func TestRunEmissionPricedAtPreStepPrice(t *testing.T) {
	params := quietPool()
	params.Days = 1
	params.IncludeBuyback = true

	records, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	// Day 0 hand-applied: 20 TAO buyback, emission valued at the 0.05
	// snapshot taken before the buyback moved the pool, then the miner sell.
	// Valuing emission at the post-buyback price instead would add ~1.4 TAO
	// more and fail the delta.
	taoR, alphaR := 10_000.0, 200_000.0
	_, taoR, alphaR = amm.Swap(taoR, alphaR, 20)
	alphaR += 7200
	taoR += 7200 * 0.05
	_, alphaR, taoR = amm.Swap(alphaR, taoR, 7200*0.41*0.5)

	require.InDelta(t, taoR, records[0].TaoReserve, 1e-9)
	require.InDelta(t, alphaR, records[0].AlphaReserve, 1e-9)
}

func TestRunCounterSellDampensPrice(t *testing.T) {
	params := whaleRun()
	params.Days = 3
	params.BuyDays = 3
	params.IncludeBuyback = false

	withCounter, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	model := config.DefaultModelParameters
	model.CounterSellFraction = 0
	withoutCounter, err := Run(params, model)
	require.NoError(t, err)

	for i := range withCounter {
		require.Greater(t, withoutCounter[i].Price, withCounter[i].Price, "day %d", i)
	}
}

func TestRunMarkToMarketMatchesRecordedState(t *testing.T) {
	params := whaleRun()
	params.Days = 8
	params.BuyDays = 5

	records, err := Run(params, config.DefaultModelParameters)
	require.NoError(t, err)

	// The recorded value must be the quote against the record's own
	// post-step reserves, confirming the valuation never moved the pool.
	for _, rec := range records {
		expected := amm.QuoteOut(rec.AlphaReserve, rec.TaoReserve, rec.WhaleAlpha)
		require.Equal(t, expected, rec.WhaleTaoValue, "day %d", rec.Day)
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*types.SimulationParams)
	}{
		{name: "zero days", mutate: func(p *types.SimulationParams) { p.Days = 0 }},
		{name: "negative days", mutate: func(p *types.SimulationParams) { p.Days = -10 }},
		{name: "zero tao reserve", mutate: func(p *types.SimulationParams) { p.InitialReserves.Tao = 0 }},
		{name: "zero alpha reserve", mutate: func(p *types.SimulationParams) { p.InitialReserves.Alpha = 0 }},
		{name: "NaN reserve", mutate: func(p *types.SimulationParams) { p.InitialReserves.Tao = math.NaN() }},
		{name: "negative whale buy", mutate: func(p *types.SimulationParams) { p.WhaleDailyBuyTao = -5 }},
		{name: "infinite whale buy", mutate: func(p *types.SimulationParams) { p.WhaleDailyBuyTao = math.Inf(1) }},
		{name: "negative buy days", mutate: func(p *types.SimulationParams) { p.BuyDays = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := whaleRun()
			tc.mutate(&params)

			_, err := Run(params, config.DefaultModelParameters)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSimulationParams)
		})
	}
}

func TestRunRejectsInvalidModel(t *testing.T) {
	model := config.DefaultModelParameters
	model.Kink = 1.5

	_, err := Run(whaleRun(), model)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidModelParameters)
}

func alphaDeltas(initialAlpha float64, records []types.DayRecord) []float64 {
	deltas := make([]float64, len(records))
	prev := initialAlpha
	for i, rec := range records {
		deltas[i] = rec.AlphaReserve - prev
		prev = rec.AlphaReserve
	}
	return deltas
}
