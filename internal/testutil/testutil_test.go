package testutil

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// fakeTB records failures instead of stopping the test.
type fakeTB struct {
	testing.TB
	failures []string
	fatal    bool
}

func (f *fakeTB) Helper() {}

func (f *fakeTB) Errorf(format string, args ...interface{}) {
	f.failures = append(f.failures, fmt.Sprintf(format, args...))
}

func (f *fakeTB) Error(args ...interface{}) {
	f.failures = append(f.failures, fmt.Sprint(args...))
}

func (f *fakeTB) Fatalf(format string, args ...interface{}) {
	f.fatal = true
	f.Errorf(format, args...)
}

func (f *fakeTB) Fatal(args ...interface{}) {
	f.fatal = true
	f.Error(args...)
}

func TestAssertErrors(t *testing.T) {
	t.Parallel()

	f := &fakeTB{}
	AssertNoError(f, nil)
	AssertError(f, errors.New("boom"))
	if len(f.failures) != 0 {
		t.Errorf("unexpected failures: %v", f.failures)
	}

	f = &fakeTB{}
	AssertNoError(f, errors.New("boom"))
	if !f.fatal {
		t.Error("AssertNoError did not fail fatally on error")
	}

	f = &fakeTB{}
	AssertError(f, nil)
	if !f.fatal {
		t.Error("AssertError did not fail fatally on nil")
	}
}

func TestAssertVectorNear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		got      particle.Vector3
		failures int
	}{
		{"exact", particle.Vector3{1, 2, 3}, 0},
		{"within", particle.Vector3{1.05, 1.95, 3}, 0},
		{"one axis off", particle.Vector3{1, 2, 3.5}, 1},
		{"all off", particle.Vector3{0, 0, 0}, 3},
		{"nan", particle.Vector3{math.NaN(), 2, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTB{}
			AssertVectorNear(f, tt.got, particle.Vector3{1, 2, 3}, 0.1)
			if len(f.failures) != tt.failures {
				t.Errorf("failures = %d (%v), want %d", len(f.failures), f.failures, tt.failures)
			}
		})
	}
}

func TestAssertAngleNear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		got, want float64
		ok        bool
	}{
		{359, 1, true},
		{1, 359, true},
		{180, -180, true},
		{90, 100, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		f := &fakeTB{}
		AssertAngleNear(f, tt.got, tt.want, 5)
		if ok := len(f.failures) == 0; ok != tt.ok {
			t.Errorf("AssertAngleNear(%v, %v) ok = %v, want %v", tt.got, tt.want, ok, tt.ok)
		}
	}

	f := &fakeTB{}
	AssertAnglesNear(f, particle.Vector3{358, 0, 90}, particle.Vector3{2, 0, 120}, 5)
	if len(f.failures) != 1 {
		t.Errorf("AssertAnglesNear failures = %v, want 1", f.failures)
	}
}

func TestAssertNormalized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		weights []float64
		ok      bool
	}{
		{"uniform", []float64{0.25, 0.25, 0.25, 0.25}, true},
		{"unnormalised", []float64{1, 1}, false},
		{"negative", []float64{1.5, -0.5}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		f := &fakeTB{}
		AssertNormalized(f, tt.weights, 1e-9)
		if ok := len(f.failures) == 0; ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v (%v)", tt.name, ok, tt.ok, f.failures)
		}
	}
}
