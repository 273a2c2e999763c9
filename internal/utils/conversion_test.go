package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRao(t *testing.T) {
	t.Run("valid amount", func(t *testing.T) {
		amount, err := ParseRao("123456789000")
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(123456789000), amount)
	})

	t.Run("rejects non-integer strings", func(t *testing.T) {
		for _, input := range []string{"", "12.5", "abc", "1e9"} {
			_, err := ParseRao(input)
			require.Error(t, err, "input %q", input)
			assert.ErrorIs(t, err, ErrConversionFailed)
		}
	})
}

func TestRaoToTao(t *testing.T) {
	t.Run("whole tao", func(t *testing.T) {
		tao, err := RaoToTao(sdkmath.NewInt(5_000_000_000))
		require.NoError(t, err)
		assert.Equal(t, 5.0, tao)
	})

	t.Run("fractional tao", func(t *testing.T) {
		tao, err := RaoToTao(sdkmath.NewInt(1_500_000_000))
		require.NoError(t, err)
		assert.Equal(t, 1.5, tao)
	})

	t.Run("single rao", func(t *testing.T) {
		tao, err := RaoToTao(sdkmath.NewInt(1))
		require.NoError(t, err)
		assert.InDelta(t, 1e-9, tao, 1e-18)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := RaoToTao(sdkmath.NewInt(-1))
		assert.ErrorIs(t, err, ErrAmountNegative)
	})

	t.Run("nil amount rejected", func(t *testing.T) {
		_, err := RaoToTao(sdkmath.Int{})
		assert.ErrorIs(t, err, ErrAmountNil)
	})
}

func TestTaoToRao(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rao, err := TaoToRao(42.125)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(42_125_000_000), rao)

		back, err := RaoToTao(rao)
		require.NoError(t, err)
		assert.Equal(t, 42.125, back)
	})

	t.Run("zero is zero", func(t *testing.T) {
		rao, err := TaoToRao(0)
		require.NoError(t, err)
		assert.True(t, rao.IsZero())
	})

	t.Run("rejects NaN and Inf", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err := TaoToRao(v)
			assert.ErrorIs(t, err, ErrNotFinite)
		}
	})

	t.Run("rejects negative", func(t *testing.T) {
		_, err := TaoToRao(-0.5)
		assert.ErrorIs(t, err, ErrAmountNegative)
	})
}
