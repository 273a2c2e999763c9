package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapPreservesInvariant(t *testing.T) {
	cases := []struct {
		name       string
		reserveIn  float64
		reserveOut float64
		amountIn   float64
	}{
		{name: "balanced pool small trade", reserveIn: 1000, reserveOut: 1000, amountIn: 10},
		{name: "balanced pool large trade", reserveIn: 1000, reserveOut: 1000, amountIn: 5000},
		{name: "skewed pool", reserveIn: 250, reserveOut: 80000, amountIn: 37.5},
		{name: "tiny reserves", reserveIn: 1, reserveOut: 1, amountIn: 0.001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := tc.reserveIn * tc.reserveOut
			out, newIn, newOut := Swap(tc.reserveIn, tc.reserveOut, tc.amountIn)

			require.Greater(t, out, 0.0)
			require.Less(t, out, tc.reserveOut)
			assert.Equal(t, tc.reserveIn+tc.amountIn, newIn)
			assert.InEpsilon(t, k, newIn*newOut, 1e-12)
			assert.InDelta(t, tc.reserveOut-out, newOut, 1e-9)
		})
	}
}

func TestSwapNonPositiveInputIsNoOp(t *testing.T) {
	for _, amountIn := range []float64{0, -1, -1e9} {
		out, newIn, newOut := Swap(500, 2000, amountIn)
		assert.Zero(t, out)
		assert.Equal(t, 500.0, newIn)
		assert.Equal(t, 2000.0, newOut)
	}
}

func TestQuoteOutMatchesSwap(t *testing.T) {
	reserveIn, reserveOut := 1200.0, 340000.0

	out, _, _ := Swap(reserveIn, reserveOut, 75)
	quoted := QuoteOut(reserveIn, reserveOut, 75)

	assert.Equal(t, out, quoted)
}

func TestQuoteOutClampsToZero(t *testing.T) {
	assert.Zero(t, QuoteOut(1000, 1000, 0))
	assert.Zero(t, QuoteOut(1000, 1000, -50))
}

func TestSwapOutputApproachesReserve(t *testing.T) {
	// Buying with an enormous input drains the pool asymptotically but can
	// never take the whole output reserve.
	out, _, newOut := Swap(100, 100, 1e12)
	assert.Less(t, out, 100.0)
	assert.Greater(t, newOut, 0.0)
}
