/*

This file contains the economic model parameters shared by the yield engine
and the whale simulator, and the database record wrapper for stored presets.

*/

package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ModelParameters holds every tunable constant of the subnet economic model.
// A single immutable value is constructed at startup (or loaded from the
// parameter store) and passed explicitly into the analyzer and the simulator,
// so tests can override individual constants without touching globals.
type ModelParameters struct {
	// --- Chain emission schedule ---
	DailyBlocks        float64 `json:"daily_blocks"`         // Blocks per day at one block per 12 seconds.
	MinerEmissionShare float64 `json:"miner_emission_share"` // Fraction of block emission paid to miners.
	EpochsPerDay       float64 `json:"epochs_per_day"`       // Borrow interest compounding epochs per day (360-block tempo).

	// --- Fee model ---
	BaseTradingFee    float64 `json:"base_trading_fee"`    // Per-side swap fee taken on pool turnover.
	BaseBorrowingFee  float64 `json:"base_borrowing_fee"`  // Borrow rate at zero utilization.
	Kink              float64 `json:"kink"`                // Utilization at which the borrow curve steepens.
	Slope1            float64 `json:"slope1"`              // Borrow rate gain below the kink.
	Slope2            float64 `json:"slope2"`              // Borrow rate gain above the kink.
	LPFeeShare        float64 `json:"lp_fee_share"`        // Share of collected fees routed to LPs.
	TradingFeeShare   float64 `json:"trading_fee_share"`   // Share of trading fees entering the LP pot.
	BorrowingFeeShare float64 `json:"borrowing_fee_share"` // Share of borrowing fees entering the LP pot.

	// --- Protocol buyback schedule ---
	BuybackStartTao        float64 `json:"buyback_start_tao"`         // TAO bought back on simulation day 0.
	BuybackIncrementPerDay float64 `json:"buyback_increment_per_day"` // Linear daily growth of the buyback size.

	// --- Simulator dynamics ---
	EmissionHalvingDay        int     `json:"emission_halving_day"`         // Day index at which emissions halve.
	PostHalvingEmissionFactor float64 `json:"post_halving_emission_factor"` // Emission multiplier from the halving day on.
	CounterSellFraction       float64 `json:"counter_sell_fraction"`        // Fraction of each whale buy arbitraged back same-day.
	MinerSellStart            float64 `json:"miner_sell_start"`             // Day-0 fraction of miner emission sold into the pool.
	MinerSellDecayPerDay      float64 `json:"miner_sell_decay_per_day"`     // Linear daily decay of the miner sell fraction.
	MinerSellFloor            float64 `json:"miner_sell_floor"`             // Lower bound of the miner sell fraction.
}

var ErrInvalidModelParameters = errors.New("invalid model parameters")

// Validate checks that every constant is finite and inside its documented
// domain. Called once wherever a ModelParameters value enters the system
// (config defaults, parameter store rows, API overrides).
func (m ModelParameters) Validate() error {
	fields := []struct {
		value float64
		name  string
	}{
		{m.DailyBlocks, "daily_blocks"},
		{m.MinerEmissionShare, "miner_emission_share"},
		{m.EpochsPerDay, "epochs_per_day"},
		{m.BaseTradingFee, "base_trading_fee"},
		{m.BaseBorrowingFee, "base_borrowing_fee"},
		{m.Kink, "kink"},
		{m.Slope1, "slope1"},
		{m.Slope2, "slope2"},
		{m.LPFeeShare, "lp_fee_share"},
		{m.TradingFeeShare, "trading_fee_share"},
		{m.BorrowingFeeShare, "borrowing_fee_share"},
		{m.BuybackStartTao, "buyback_start_tao"},
		{m.BuybackIncrementPerDay, "buyback_increment_per_day"},
		{m.PostHalvingEmissionFactor, "post_halving_emission_factor"},
		{m.CounterSellFraction, "counter_sell_fraction"},
		{m.MinerSellStart, "miner_sell_start"},
		{m.MinerSellDecayPerDay, "miner_sell_decay_per_day"},
		{m.MinerSellFloor, "miner_sell_floor"},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidModelParameters, f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%w: %s cannot be negative", ErrInvalidModelParameters, f.name)
		}
	}

	if m.DailyBlocks == 0 {
		return fmt.Errorf("%w: daily_blocks must be positive", ErrInvalidModelParameters)
	}
	// The borrow curve divides by Kink below the kink and by (1-Kink) above it.
	if m.Kink <= 0 || m.Kink >= 1 {
		return fmt.Errorf("%w: kink must be inside (0, 1)", ErrInvalidModelParameters)
	}
	if m.EmissionHalvingDay < 0 {
		return fmt.Errorf("%w: emission_halving_day cannot be negative", ErrInvalidModelParameters)
	}
	if m.MinerSellFloor > m.MinerSellStart {
		return fmt.Errorf("%w: miner_sell_floor cannot exceed miner_sell_start", ErrInvalidModelParameters)
	}
	return nil
}

// ParameterRecord wraps a stored ModelParameters preset with its database
// identity and activation metadata.
type ParameterRecord struct {
	ID          int64           `json:"params_id"`
	ConfigName  string          `json:"config_name"`
	Version     int             `json:"version"`
	Active      bool            `json:"is_active"`
	ActivatedAt time.Time       `json:"activated_at"`
	CreatedAt   time.Time       `json:"created_at"`
	Params      ModelParameters `json:"parameters"`
}
