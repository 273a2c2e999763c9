/*

This file contains the input and output types of the reserve trajectory
simulator.

*/

package types

// SimulationParams is the immutable input of one simulation run.
type SimulationParams struct {
	Days             int          `json:"days"`                // Number of days to simulate, > 0.
	InitialReserves  PoolReserves `json:"initial_reserves"`    // Starting pool state, both sides > 0.
	WhaleDailyBuyTao float64      `json:"whale_daily_buy_tao"` // TAO the whale spends each buy-phase day, >= 0.
	BuyDays          int          `json:"buy_days"`            // Length of the whale buy phase in days, >= 0.
	IncludeBuyback   bool         `json:"include_buyback"`     // Whether the protocol buyback schedule runs.
}

// DayRecord is one row of simulator output. Records are emitted once per day
// index 0..Days-1, in order; the sequence is append-only and owned by the run
// that produced it.
type DayRecord struct {
	Day           int     `json:"day"`
	Price         float64 `json:"price"`           // Post-step spot price.
	TaoReserve    float64 `json:"tao_reserve"`     // Post-step quote reserve.
	AlphaReserve  float64 `json:"alpha_reserve"`   // Post-step base reserve.
	WhaleAlpha    float64 `json:"whale_alpha"`     // Cumulative alpha the whale holds.
	WhaleTaoSpent float64 `json:"whale_tao_spent"` // Cumulative TAO the whale has spent.
	WhaleTaoValue float64 `json:"whale_tao_value"` // Mark-to-market TAO value of the whale position.
}

// WhaleSummary reports the whale position value at fixed checkpoints after
// the buy phase ends, all derived from a finished record sequence. Every
// field is zero when the run had no buy phase.
type WhaleSummary struct {
	TaoSpent       float64 `json:"tao_spent"`        // BuyDays * WhaleDailyBuyTao.
	ValueAtBuyEnd  float64 `json:"value_at_buy_end"` // Mark-to-market on the last buy-phase day.
	ValueAfter30d  float64 `json:"value_after_30d"`
	ValueAfter60d  float64 `json:"value_after_60d"`
	ValueAfter120d float64 `json:"value_after_120d"`
}
