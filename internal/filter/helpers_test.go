package filter

import (
	"math/rand/v2"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/stretchr/testify/require"
)

var testField = FieldSize{XMin: 0, XMax: 4, YMin: 0, YMax: 2, ZMin: 0, ZMax: 4}

const (
	tickStart    int64 = 1_000
	tickInterval int64 = 100
)

func tickAt(i int) int64 { return tickStart + int64(i)*tickInterval }

func testStrategies(t *testing.T, seed uint64, windowMillis int64) Strategies {
	t.Helper()
	smoother, err := particle.NewWindowSmoother(windowMillis, 0)
	require.NoError(t, err)
	return Strategies{
		Generator: particle.NewRandomGenerator(rand.New(rand.NewPCG(seed, 1))),
		Resampler: particle.NewSystematicResampler(rand.New(rand.NewPCG(seed, 2))),
		Noise:     particle.NewUniformNoise(rand.New(rand.NewPCG(seed, 3))),
		Smoother:  smoother,
	}
}

func testPoseConfig(particles int) PoseConfig {
	return PoseConfig{
		Field:              testField,
		Particles:          particles,
		PositionOptions:    Options{ResampleNoise: 0.05},
		OrientationOptions: Options{ResampleNoise: 2},
	}
}
