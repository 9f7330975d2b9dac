package filter

import (
	"fmt"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// FieldSize bounds the three position dimensions in metres.
type FieldSize struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
	ZMin float64 `json:"zmin"`
	ZMax float64 `json:"zmax"`
}

// Validate checks that every axis has a non-empty range.
func (f FieldSize) Validate() error {
	axes := [3][2]float64{{f.XMin, f.XMax}, {f.YMin, f.YMax}, {f.ZMin, f.ZMax}}
	for i, a := range axes {
		if !(a[0] < a[1]) {
			return fmt.Errorf("%w: field axis %d has invalid range [%v, %v]", particle.ErrConfiguration, i, a[0], a[1])
		}
	}
	return nil
}

// Axis returns the bounds of axis d (0=x, 1=y, 2=z).
func (f FieldSize) Axis(d int) (min, max float64) {
	switch d {
	case 0:
		return f.XMin, f.XMax
	case 1:
		return f.YMin, f.YMax
	default:
		return f.ZMin, f.ZMax
	}
}

// Contains reports whether p lies inside the field.
func (f FieldSize) Contains(p particle.Vector3) bool {
	for d := 0; d < 3; d++ {
		min, max := f.Axis(d)
		if !(p[d] >= min && p[d] <= max) {
			return false
		}
	}
	return true
}
