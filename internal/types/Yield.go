package types

// YieldParams holds the per-evaluation inputs of the yield engine. A value is
// built for one computation and never mutated afterwards.
type YieldParams struct {
	TVL             float64 `json:"tvl"`              // Pool TVL in TAO.
	TurnoverRate    float64 `json:"turnover_rate"`    // Daily traded volume as a multiple of TVL, >= 0.
	UtilizationRate float64 `json:"utilization_rate"` // Borrowed share of the pool, in [0, 1].
	Price           float64 `json:"price"`            // Alpha price in TAO, >= 0.
	BurnPercentage  float64 `json:"burn_percentage"`  // Share of miner emission burned; clamped into [0, 100] by the model.
}

// RewardBreakdown is the full point-inspection output: the three daily reward
// components plus the annualized rates they imply at the given TVL.
type RewardBreakdown struct {
	TradingFeeReward   float64 `json:"trading_fee_reward"`
	BorrowingFeeReward float64 `json:"borrowing_fee_reward"`
	MinerEmission      float64 `json:"miner_emission"`
	TotalReward        float64 `json:"total_reward"`
	APR                float64 `json:"apr"`
	APY                float64 `json:"apy"`
}

// CurvePoint is one sample of the APR/APY-versus-TVL curve.
type CurvePoint struct {
	TVL float64 `json:"tvl"`
	APR float64 `json:"apr"`
	APY float64 `json:"apy"`
}

// CurveRequest describes a curve sweep: Baseline supplies the fixed market
// inputs while TVL is swept across [MinTVL, MaxTVL] in Points evenly spaced
// samples, both endpoints included.
type CurveRequest struct {
	MinTVL   float64     `json:"min_tvl"`
	MaxTVL   float64     `json:"max_tvl"`
	Points   int         `json:"points"`
	Baseline YieldParams `json:"baseline"`
}

// YieldInspection is the detailed view of a single curve point: the borrow
// curve position alongside the full reward breakdown.
type YieldInspection struct {
	TVL         float64         `json:"tvl"`
	Utilization float64         `json:"utilization"`
	BorrowRate  float64         `json:"borrow_rate"`
	Breakdown   RewardBreakdown `json:"breakdown"`
}
