package particle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearController(t *testing.T) {
	t.Parallel()

	t.Run("nil values start at min", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(4, 1, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1, 1, 1}, c.Values())
		assert.Equal(t, []float64{1, 1, 1, 1}, c.Weights())
	})

	t.Run("rejects bad construction", func(t *testing.T) {
		t.Parallel()
		_, err := NewLinearController(0, 0, 1, nil)
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = NewLinearController(3, 2, 2, nil)
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = NewLinearController(2, 0, 1, []float64{0.5})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("set values out of range", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 4, []float64{1, 2})
		require.NoError(t, err)
		assert.ErrorIs(t, c.SetValues([]float64{1, 5}), ErrRange)
		assert.Equal(t, []float64{1, 2}, c.Values(), "failed assignment must not modify values")
		assert.ErrorIs(t, c.SetValueAt(0, -0.1), ErrRange)
		require.NoError(t, c.SetValueAt(0, 4))
		assert.Equal(t, 4.0, c.ValueAt(0))
	})

	t.Run("add to values clamps", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(4, 0, 4, []float64{0, 1, 2, 3})
		require.NoError(t, err)
		require.NoError(t, c.AddToValues([]float64{-1, 0.5, 5, math.NaN()}))
		assert.Equal(t, []float64{0, 1.5, 4, 0}, c.Values())
		assert.ErrorIs(t, c.AddToValues([]float64{1}), ErrConfiguration)
	})

	t.Run("distance to value", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(4, 0, 4, []float64{0, 1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 1, 0, -1}, c.DistanceToValue(2))
	})

	t.Run("weighted average", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 4, []float64{0, 2})
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{0.25, 0.75}))
		assert.InDelta(t, 1.5, c.WeightedAverage(), 1e-12)
	})

	t.Run("identical values average exactly", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(3, 0, 4, []float64{1.7, 1.7, 1.7})
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{0.1, 0.2, 0.3}))
		assert.Equal(t, 1.7, c.WeightedAverage())
	})

	t.Run("values returns a copy", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 4, []float64{1, 2})
		require.NoError(t, err)
		v := c.Values()
		v[0] = 3
		w := c.Weights()
		w[0] = 9
		assert.Equal(t, 1.0, c.ValueAt(0))
		assert.Equal(t, 1.0, c.WeightAt(0))
	})
}

func TestWeights(t *testing.T) {
	t.Parallel()

	t.Run("normalize", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 1, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{1, 3}))
		assert.Equal(t, 4.0, c.WeightSum())
		require.NoError(t, c.NormalizeWeights())
		assert.InDeltaSlice(t, []float64{0.25, 0.75}, c.Weights(), 1e-12)
	})

	t.Run("normalize zero sum", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 1, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{0, 0}))
		assert.ErrorIs(t, c.NormalizeWeights(), ErrDivideByZero)
	})

	t.Run("normalize underflow", func(t *testing.T) {
		t.Parallel()
		c, err := NewLinearController(2, 0, 1, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{1e-300, 1e-300}))
		assert.ErrorIs(t, c.NormalizeWeights(), ErrDivideByZero)
	})

	t.Run("invalid weights", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, c.SetWeights([]float64{1}), ErrConfiguration)
		assert.ErrorIs(t, c.SetWeights([]float64{1, -1}), ErrRange)
		assert.ErrorIs(t, c.SetWeightAt(0, math.NaN()), ErrRange)
	})

	t.Run("multiply and reset", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(3, nil)
		require.NoError(t, err)
		c.MultiplyWeightAt(1, 0.5)
		assert.Equal(t, []float64{1, 0.5, 1}, c.Weights())
		c.ResetWeights()
		assert.Equal(t, []float64{1, 1, 1}, c.Weights())
	})
}

func TestCircularController(t *testing.T) {
	t.Parallel()

	t.Run("values wrap", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(3, []float64{-10, 370, 720})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{350, 10, 0}, c.Values(), 1e-9)
		lo, hi := c.Bounds()
		assert.Equal(t, 0.0, lo)
		assert.Equal(t, 360.0, hi)
	})

	t.Run("rejects non-finite", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, c.SetValues([]float64{0, math.NaN()}), ErrRange)
		assert.ErrorIs(t, c.SetValueAt(0, math.Inf(1)), ErrRange)
	})

	t.Run("add wraps", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, []float64{350, 5})
		require.NoError(t, err)
		require.NoError(t, c.AddToValues([]float64{20, -10}))
		assert.InDeltaSlice(t, []float64{10, 355}, c.Values(), 1e-9)
	})

	t.Run("distance is the short arc", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, []float64{350, 10})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{20, 0}, c.DistanceToValue(10), 1e-9)
		assert.InDeltaSlice(t, []float64{0, -20}, c.DistanceToValue(350), 1e-9)
	})

	t.Run("average across zero", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, []float64{350, 10})
		require.NoError(t, err)
		require.NoError(t, c.NormalizeWeights())
		assert.InDelta(t, 0, AngleDiff(0, c.WeightedAverage()), 1e-9)
	})

	t.Run("weighted average leans to heavier particle", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, []float64{0, 90})
		require.NoError(t, err)
		require.NoError(t, c.SetWeights([]float64{0.1, 0.9}))
		got := c.WeightedAverage()
		assert.Greater(t, got, 45.0)
		assert.Less(t, got, 90.0)
	})

	t.Run("opposing particles cancel", func(t *testing.T) {
		t.Parallel()
		c, err := NewCircularController(2, []float64{0, 180})
		require.NoError(t, err)
		require.NoError(t, c.NormalizeWeights())
		assert.True(t, math.IsNaN(c.WeightedAverage()))
	})
}
