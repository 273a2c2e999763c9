/*

This file contains the deterministic day-by-day reserve trajectory simulator.
Each day applies, in order: the whale DCA buy with its arbitrage counter-sell,
the protocol buyback, block emission and the miner sell flow, then marks the
whale position to market. The loop is a pure fold over the day index, so two
runs with equal inputs produce identical output.

*/

package simulator

import (
	"errors"
	"math"

	"github.com/subtensor-labs/taosim/internal/amm"
	"github.com/subtensor-labs/taosim/internal/logger"
	"github.com/subtensor-labs/taosim/internal/types"
)

var ErrInvalidSimulationParams = errors.New("invalid simulation parameters")

var simLogger = logger.GetForComponent("whale_simulator")

// priceFloor guards divisions by prices that collapsed to zero.
const priceFloor = 1e-12

// state carries the pool and the whale position between day steps.
type state struct {
	reserves   types.PoolReserves
	whaleAlpha float64
	whaleSpent float64
}

// Run simulates params.Days days starting from the initial reserves and
// returns one record per day, in day order.
// Inputs:
//   - params: The run inputs: horizon, starting reserves, whale schedule.
//   - model: The economic model constants.
//
// Output:
//   - The per-day record sequence, length params.Days.
//   - An error if either input fails validation.
func Run(params types.SimulationParams, model types.ModelParameters) ([]types.DayRecord, error) {
	if err := ValidateSimulationParams(params); err != nil {
		simLogger.Error().
			Err(err).
			Int("days", params.Days).
			Msg("Simulation parameter validation failed")
		return nil, errors.Join(ErrInvalidSimulationParams, err)
	}
	if err := model.Validate(); err != nil {
		simLogger.Error().
			Err(err).
			Msg("Model parameter validation failed")
		return nil, err
	}

	records := make([]types.DayRecord, 0, params.Days)
	cur := state{reserves: params.InitialReserves}
	for day := 0; day < params.Days; day++ {
		var record types.DayRecord
		cur, record = step(cur, day, params, model)
		records = append(records, record)
	}

	simLogger.Debug().
		Int("days", params.Days).
		Float64("initialPrice", params.InitialReserves.Price()).
		Float64("finalPrice", records[len(records)-1].Price).
		Float64("whaleTaoSpent", records[len(records)-1].WhaleTaoSpent).
		Msg("Simulation completed")

	return records, nil
}

// step advances the pool by one day and reports the post-step snapshot. It
// never mutates its inputs; the caller threads the returned state into the
// next day.
func step(cur state, day int, params types.SimulationParams, model types.ModelParameters) (state, types.DayRecord) {
	taoR := cur.reserves.Tao
	alphaR := cur.reserves.Alpha
	whaleAlpha := cur.whaleAlpha
	whaleSpent := cur.whaleSpent

	// Price snapshot before any of the day's flows move the pool.
	price := taoR / alphaR

	// Whale DCA buy, followed by arbitrageurs selling back a fraction of the
	// buy at the snapshot price.
	if params.WhaleDailyBuyTao > 0 && day < params.BuyDays {
		var bought float64
		bought, taoR, alphaR = amm.Swap(taoR, alphaR, params.WhaleDailyBuyTao)
		whaleAlpha += bought
		whaleSpent += params.WhaleDailyBuyTao

		counterAlpha := model.CounterSellFraction * params.WhaleDailyBuyTao / math.Max(price, priceFloor)
		_, alphaR, taoR = amm.Swap(alphaR, taoR, counterAlpha)
	}

	// Protocol buyback grows linearly with the day index and keeps running
	// after the whale is done buying.
	if params.IncludeBuyback {
		buyback := model.BuybackStartTao + model.BuybackIncrementPerDay*float64(day)
		_, taoR, alphaR = amm.Swap(taoR, alphaR, buyback)
	}

	// Block emission lands on both sides of the pool. The TAO side is valued
	// at the snapshot price, not the current one: emission for the day is
	// priced before the day's own trades.
	factor := 1.0
	if day >= model.EmissionHalvingDay {
		factor = model.PostHalvingEmissionFactor
	}
	alphaR += model.DailyBlocks * factor
	taoR += model.DailyBlocks * price * factor

	// Miners sell a linearly decaying share of their emission into the pool.
	sellFraction := math.Max(model.MinerSellStart-model.MinerSellDecayPerDay*float64(day), model.MinerSellFloor)
	minerAlpha := model.DailyBlocks * model.MinerEmissionShare * sellFraction
	_, alphaR, taoR = amm.Swap(alphaR, taoR, minerAlpha)

	// Mark the whale position to market against the post-step pool without
	// committing the hypothetical exit.
	whaleValue := amm.QuoteOut(alphaR, taoR, whaleAlpha)

	next := state{
		reserves:   types.PoolReserves{Tao: taoR, Alpha: alphaR},
		whaleAlpha: whaleAlpha,
		whaleSpent: whaleSpent,
	}
	record := types.DayRecord{
		Day:           day,
		Price:         taoR / alphaR,
		TaoReserve:    taoR,
		AlphaReserve:  alphaR,
		WhaleAlpha:    whaleAlpha,
		WhaleTaoSpent: whaleSpent,
		WhaleTaoValue: whaleValue,
	}
	return next, record
}

// ValidateSimulationParams checks that the run inputs are finite and within
// their documented domains.
func ValidateSimulationParams(params types.SimulationParams) error {
	if params.Days <= 0 {
		return errors.New("days must be positive")
	}

	fields := []struct {
		value float64
		name  string
	}{
		{params.InitialReserves.Tao, "tao reserve"},
		{params.InitialReserves.Alpha, "alpha reserve"},
		{params.WhaleDailyBuyTao, "whale daily buy"},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.New(f.name + " must be finite")
		}
	}

	if !params.InitialReserves.IsPositive() {
		return errors.New("initial reserves must be positive on both sides")
	}
	if params.WhaleDailyBuyTao < 0 {
		return errors.New("whale daily buy cannot be negative")
	}
	if params.BuyDays < 0 {
		return errors.New("buy days cannot be negative")
	}

	return nil
}
