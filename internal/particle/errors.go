package particle

import "errors"

var (
	// ErrConfiguration reports invalid construction parameters or array
	// length mismatches. It is never recovered.
	ErrConfiguration = errors.New("particle: configuration error")

	// ErrRange reports a direct value assignment outside a controller's range.
	ErrRange = errors.New("particle: value out of range")

	// ErrDivideByZero reports a weight sum too close to zero to normalise.
	ErrDivideByZero = errors.New("particle: weight sum is zero")

	// ErrOrdering reports a cycle timestamp that does not strictly increase.
	ErrOrdering = errors.New("particle: timestamp not increasing")
)

// WeightEpsilon is the weight sum below which a population is treated as
// degenerate.
const WeightEpsilon = 1e-250
