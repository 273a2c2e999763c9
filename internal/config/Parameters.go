/*

This file contains the default economic model parameters.

These values mirror the on-chain constants of the target subnet and the fee
switch settings in force as of mid-2025. They are used whenever no active
parameter preset is found in the database during initialization, and they are
the baseline every stored preset is derived from.

*/

package config

import (
	"github.com/subtensor-labs/taosim/internal/types"
)

// DefaultModelParameters provides the baseline constants for the yield
// analyzer and the whale simulator.
var DefaultModelParameters = types.ModelParameters{
	// --- Chain emission schedule ---
	DailyBlocks: 7200, // One block every 12 seconds.

	MinerEmissionShare: 0.41, // Miner cut of each block's alpha emission; the rest goes to validators and the owner.

	EpochsPerDay: 20, // Subnet tempo of 360 blocks gives 20 epochs per day.

	// --- Fee model ---
	BaseTradingFee: 0.003, // 30 bps per swap side, matching the subnet fee switch.

	BaseBorrowingFee: 0.00005, // Per-epoch borrow rate at zero utilization.

	Kink: 0.8, // Utilization breakpoint of the two-slope borrow curve.

	Slope1: 0.00015, // Rate gain accumulated from zero utilization up to the kink.

	Slope2: 0.0008, // Rate gain accumulated from the kink up to full utilization.

	LPFeeShare: 0.875, // LPs keep 87.5% of pot fees; the remainder funds the protocol treasury.

	TradingFeeShare: 0.3, // Share of trading fees that enters the LP pot.

	BorrowingFeeShare: 0.35, // Share of borrowing fees that enters the LP pot.

	// --- Protocol buyback schedule ---
	BuybackStartTao: 20.0, // Announced day-0 buyback size in TAO.

	BuybackIncrementPerDay: 0.5, // Buyback grows linearly by half a TAO per day.

	// --- Simulator dynamics ---
	EmissionHalvingDay: 60, // First emission halving lands two months into the run.

	PostHalvingEmissionFactor: 0.5, // Emissions halve once, then stay at half rate.

	CounterSellFraction: 0.25, // A quarter of each whale buy is arbitraged back the same day.

	MinerSellStart: 0.5, // Half of miner emission is market-sold on day 0.

	MinerSellDecayPerDay: 0.01, // Sell pressure eases one percentage point per day.

	MinerSellFloor: 0.3, // Miners never sell less than 30% of emission.
}

// Defaults applied when a curve or simulation request omits an input. Both
// the CLI flags and the web query parameters resolve through these.
const (
	DefaultCurveMinTVL     = 5_000.0
	DefaultCurveMaxTVL     = 100_000.0
	DefaultCurvePoints     = 100
	DefaultTurnoverRate    = 1.0
	DefaultUtilizationRate = 0.5
	DefaultBurnPercentage  = 0.0
	DefaultAlphaPrice      = 0.0 // Zero resolves to the live pool price.

	DefaultSimulationDays   = 120
	DefaultWhaleDailyBuyTao = 300.0
	DefaultBuyDays          = 10
	DefaultIncludeBuyback   = true
)
