// Package testutil provides shared test assertions for pose estimates.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/particle"
	"gonum.org/v1/gonum/floats"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertVectorNear checks every component of got is within tol of want.
func AssertVectorNear(t testing.TB, got, want particle.Vector3, tol float64) {
	t.Helper()
	if got.HasNaN() {
		t.Errorf("vector = %v, want %v (contains NaN)", got, want)
		return
	}
	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > tol {
			t.Errorf("vector[%d] = %.4f, want %.4f ±%g (off by %.4f)", i, got[i], want[i], tol, d)
		}
	}
}

// AssertAngleNear checks got is within tol degrees of want along the
// shortest arc, so 359 and 1 are 2 degrees apart.
func AssertAngleNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) {
		t.Errorf("angle = NaN, want %.2f", want)
		return
	}
	if d := math.Abs(particle.AngleDiff(got, want)); d > tol {
		t.Errorf("angle = %.2f, want %.2f ±%g (off by %.2f)", got, want, tol, d)
	}
}

// AssertAnglesNear applies AssertAngleNear to each axis.
func AssertAnglesNear(t testing.TB, got, want particle.Vector3, tol float64) {
	t.Helper()
	for i := range got {
		AssertAngleNear(t, got[i], want[i], tol)
	}
}

// AssertNormalized checks weights sum to one within tol and none is
// negative.
func AssertNormalized(t testing.TB, weights []float64, tol float64) {
	t.Helper()
	if len(weights) == 0 {
		t.Error("no weights")
		return
	}
	if floats.Min(weights) < 0 {
		t.Errorf("negative weight %g", floats.Min(weights))
	}
	if sum := floats.Sum(weights); math.Abs(sum-1) > tol {
		t.Errorf("weights sum to %g, want 1 ±%g", sum, tol)
	}
}
