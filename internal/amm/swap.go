// Package amm implements the constant-product swap primitive shared by the
// yield analyzer and the whale simulator. All quantities are plain float64
// pool units; fees are modeled by the callers, never here.
package amm

// epsilon floors divisors so the formulas stay total even for degenerate
// reserve values fed in by tests.
const epsilon = 1e-12

// Swap executes a constant-product swap of amountIn units of the input-side
// asset against the pool (reserveIn, reserveOut). It returns the output
// amount and the updated reserves.
//
// A non-positive amountIn is a no-op, not an error: the reserves come back
// unchanged with a zero output. For positive input the invariant
// k = reserveIn * reserveOut is preserved, so the output amount is always
// non-negative and strictly below reserveOut.
func Swap(reserveIn, reserveOut, amountIn float64) (amountOut, newReserveIn, newReserveOut float64) {
	if amountIn <= 0 {
		return 0, reserveIn, reserveOut
	}
	k := reserveIn * reserveOut
	newReserveIn = reserveIn + amountIn
	newReserveOut = k / newReserveIn
	amountOut = reserveOut - newReserveOut
	return amountOut, newReserveIn, newReserveOut
}

// QuoteOut returns the output amount a Swap of amountIn would produce against
// (reserveIn, reserveOut) without committing the trade. This is the
// mark-to-market path: the caller's reserves are never touched.
func QuoteOut(reserveIn, reserveOut, amountIn float64) float64 {
	if amountIn <= 0 {
		return 0
	}
	k := reserveIn * reserveOut
	newReserveIn := reserveIn + amountIn
	if newReserveIn < epsilon {
		newReserveIn = epsilon
	}
	out := reserveOut - k/newReserveIn
	if out < 0 {
		return 0
	}
	return out
}
