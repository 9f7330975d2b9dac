package particle

import "math"

// Vector3 is a three component value: x/y/z in metres for positions,
// pitch/yaw/roll in degrees for orientations.
type Vector3 [3]float64

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// HasNaN reports whether any component is NaN.
func (v Vector3) HasNaN() bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}

// WrapDegrees maps any angle into [0, 360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative value can round up to exactly 360.
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleDiff returns the signed shortest arc from a to b in degrees, in the
// range (-180, 180].
func AngleDiff(a, b float64) float64 {
	d := WrapDegrees(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}
