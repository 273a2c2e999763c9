/*

This is a custom type for the subnet liquidity pool reserves, the shared input
of the yield engine and the whale simulator.

*/

package types

// PoolReserves holds the two sides of a subnet's TAO/alpha constant-product
// pool. TAO is the quote asset, alpha the base asset. Both sides are strictly
// positive once sourced: the datafetcher floors chain values at 1.0.
type PoolReserves struct {
	Tao   float64 `json:"tao_reserve"`   // Quote-asset reserve (TAO)
	Alpha float64 `json:"alpha_reserve"` // Base-asset reserve (subnet alpha)
}

// Price returns the pool spot price in TAO per alpha. A pool with no alpha
// reserve quotes at 1.0, matching the chain's convention for empty pools.
func (r PoolReserves) Price() float64 {
	if r.Alpha == 0 {
		return 1.0
	}
	return r.Tao / r.Alpha
}

// IsPositive reports whether both reserves are strictly positive.
func (r PoolReserves) IsPositive() bool {
	return r.Tao > 0 && r.Alpha > 0
}
