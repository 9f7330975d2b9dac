package filter

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/banshee-data/anchor-pose/internal/sim"
	"github.com/banshee-data/anchor-pose/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionFilterConverges(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 500, testStrategies(t, 1, 300), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	pf.AddPositionSource(sim.Static(particle.Vector3{2, 1, 2}, 0.1))

	for i := 0; i < 50; i++ {
		got, err := pf.Calculate(tickAt(i))
		require.NoError(t, err)
		assert.True(t, testField.Contains(got), "tick %d estimate %v left the field", i, got)
		if i >= 30 {
			testutil.AssertVectorNear(t, got, particle.Vector3{2, 1, 2}, 0.1)
		}
	}
	assert.Equal(t, 50, pf.Cycles())
	assert.Equal(t, 0, pf.Reseeds())
}

func TestPositionFilterNoisySensors(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 500, testStrategies(t, 2, 500), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	for stream := uint64(0); stream < 2; stream++ {
		pf.AddPositionSource(&sim.Signal{
			Trajectory: sim.Constant(particle.Vector3{1, 0.5, 3}),
			StdDev:     0.1,
			Rng:        rand.New(rand.NewPCG(42, stream)),
		})
	}

	var got particle.Vector3
	for i := 0; i < 40; i++ {
		got, err = pf.Calculate(tickAt(i))
		require.NoError(t, err)
	}
	assert.InDelta(t, 1, got[0], 0.1)
	assert.InDelta(t, 0.5, got[1], 0.1)
	assert.InDelta(t, 3, got[2], 0.1)
}

func TestOrientationFilterTracksOscillation(t *testing.T) {
	t.Parallel()
	of, err := NewOrientationFilter(500, testStrategies(t, 3, 300), Options{ResampleNoise: 2})
	require.NoError(t, err)
	truth := sim.Oscillate(particle.Vector3{10, 0, 350}, 1, 30, 2000)
	of.AddOrientationSource(&sim.Signal{Trajectory: truth, StdDev: 2, Wrap: true})

	for i := 0; i < 100; i++ {
		ts := tickAt(i)
		got, err := of.Calculate(ts)
		require.NoError(t, err)
		if i < 20 {
			continue
		}
		want := truth(ts)
		for d := 0; d < 3; d++ {
			assert.GreaterOrEqual(t, got[d], 0.0)
			assert.Less(t, got[d], 360.0)
			assert.InDelta(t, 0, particle.AngleDiff(want[d], got[d]), 10, "tick %d axis %d want %v got %v", i, d, want[d], got[d])
		}
	}
}

func TestPositionFilterOutlierReseeds(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 500, testStrategies(t, 4, 300), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	outlierAt := tickAt(20)
	pf.AddPositionSource(&sim.Outlier{
		Source: sim.Static(particle.Vector3{2, 1, 2}, 0.1),
		At:     outlierAt,
		Value:  particle.Vector3{999, 999, 999},
	})

	for i := 0; i < 30; i++ {
		got, err := pf.Calculate(tickAt(i))
		require.NoError(t, err, "tick %d", i)
		assert.True(t, testField.Contains(got), "tick %d estimate %v left the field", i, got)
	}
	assert.Equal(t, 3, pf.Reseeds(), "each axis reseeds once at the outlier")
	got := pf.LastResult()
	assert.InDelta(t, 2, got[0], 0.1)
	assert.InDelta(t, 1, got[1], 0.1)
	assert.InDelta(t, 2, got[2], 0.1)
}

func TestFilterRejectsNonIncreasingTimestamps(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 50, testStrategies(t, 5, 300), Options{ResampleNoise: 0.05})
	require.NoError(t, err)

	_, err = pf.Calculate(1_000)
	require.NoError(t, err)
	_, err = pf.Calculate(1_000)
	assert.ErrorIs(t, err, particle.ErrOrdering)
	_, err = pf.Calculate(900)
	assert.ErrorIs(t, err, particle.ErrOrdering)
	_, err = pf.Calculate(1_100)
	assert.NoError(t, err)

	prev, cur := pf.Timestamps()
	assert.Equal(t, int64(1_000), prev)
	assert.Equal(t, int64(1_100), cur)
}

func TestFilterWithoutSources(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 200, testStrategies(t, 6, 300), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := pf.Calculate(tickAt(i))
		require.NoError(t, err)
		assert.True(t, testField.Contains(got))
	}
	assert.Equal(t, 0, pf.Reseeds())
}

func TestPositionFilterDisplacement(t *testing.T) {
	t.Parallel()
	pf, err := NewPositionFilter(testField, 200, testStrategies(t, 7, 300), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	pf.AddPositionSource(sim.Static(particle.Vector3{2, 1, 2}, 0.1))
	move := func(ts int64) particle.Vector3 { return particle.Vector3{0.001 * float64(ts), 0, 0} }
	pf.AddDisplacementSource(&sim.Displacement{Trajectory: move, StdDev: 0.05})

	// No estimate yet: displacements are ignored.
	require.Len(t, pf.RetrieveMeasurements(0, 1_000), 1)

	_, err = pf.Calculate(1_000)
	require.NoError(t, err)
	last := pf.LastResult()

	ms := pf.RetrieveMeasurements(1_000, 1_100)
	require.Len(t, ms, 2)
	assert.Equal(t, particle.Vector3{2, 1, 2}, ms[0].Data)
	assert.InDelta(t, last[0]+0.1, ms[1].Data[0], 1e-9)
	assert.InDelta(t, last[1], ms[1].Data[1], 1e-9)
	assert.InDelta(t, last[2], ms[1].Data[2], 1e-9)
	assert.Equal(t, int64(1_100), ms[1].Timestamp)
}

// worstRampError drives a position filter after a target moving at 0.5 m/s
// along x and returns the largest raw x error over ticks 20 to 39.
func worstRampError(t *testing.T, predict bool) float64 {
	t.Helper()
	pf, err := NewPositionFilter(testField, 500, testStrategies(t, 8, 300),
		Options{ResampleNoise: 0.05, EnablePrediction: predict})
	require.NoError(t, err)
	truth := func(ts int64) particle.Vector3 {
		return particle.Vector3{1 + 0.0005*float64(ts-tickStart), 1, 2}
	}
	pf.AddPositionSource(&sim.Signal{Trajectory: truth, StdDev: 0.05})

	var worst float64
	for i := 0; i < 40; i++ {
		ts := tickAt(i)
		_, err := pf.Calculate(ts)
		require.NoError(t, err)
		if i >= 20 {
			worst = math.Max(worst, math.Abs(truth(ts)[0]-pf.LastRaw()[0]))
		}
	}
	return worst
}

func TestPositionFilterPredictionTracksMotion(t *testing.T) {
	t.Parallel()
	lagging := worstRampError(t, false)
	predicted := worstRampError(t, true)

	assert.Less(t, predicted, 0.05, "prediction enabled")
	assert.Less(t, predicted, lagging/2, "prediction should cut the lag: on=%.4f off=%.4f", predicted, lagging)
}

func TestFilterOptionsValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts Options
	}{
		{name: "negative noise", opts: Options{ResampleNoise: -1}},
		{name: "negative margin", opts: Options{ResampleNoise: 0.1, WeightMargin: -0.1}},
		{name: "short history", opts: Options{ResampleNoise: 0.1, HistorySize: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPositionFilter(testField, 10, testStrategies(t, 1, 0), tt.opts)
			assert.ErrorIs(t, err, particle.ErrConfiguration)
		})
	}

	_, err := NewPositionFilter(FieldSize{XMax: 1, YMax: 1}, 10, testStrategies(t, 1, 0), Options{})
	assert.ErrorIs(t, err, particle.ErrConfiguration)
	_, err = NewOrientationFilter(10, Strategies{}, Options{})
	assert.ErrorIs(t, err, particle.ErrConfiguration)
	_, err = NewOrientationFilter(0, testStrategies(t, 1, 0), Options{})
	assert.ErrorIs(t, err, particle.ErrConfiguration)
}

func TestReseedIsLogged(t *testing.T) {
	var diag bytes.Buffer
	SetLogWriters(LogWriters{Diag: &diag})
	defer SetLogWriters(LogWriters{})

	pf, err := NewPositionFilter(testField, 20, testStrategies(t, 9, 0), Options{ResampleNoise: 0.05})
	require.NoError(t, err)
	pf.AddPositionSource(sim.Static(particle.Vector3{math.NaN(), 50, 1}, 0.1))
	_, err = pf.Calculate(1_000)
	require.NoError(t, err)

	assert.Equal(t, 1, pf.Reseeds())
	assert.Contains(t, diag.String(), "position filter dimension 1 degenerate")
}
