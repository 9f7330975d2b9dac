package particle

// Measurement is one timestamped sensor reading with its error model.
// Values are copied, never shared; a Measurement is consumed once per cycle.
type Measurement[T any] struct {
	Data         T
	Timestamp    int64 // Unix millis
	StdDev       float64
	Distribution Distribution
}

// NewMeasurement builds a measurement whose distribution is derived from kind
// and stddev.
func NewMeasurement[T any](data T, timestamp int64, stddev float64, kind DistributionKind) (Measurement[T], error) {
	dist, err := NewDistribution(kind, stddev)
	if err != nil {
		return Measurement[T]{}, err
	}
	return Measurement[T]{
		Data:         data,
		Timestamp:    timestamp,
		StdDev:       stddev,
		Distribution: dist,
	}, nil
}

// VectorMeasurement is the reading type produced by every pose source.
type VectorMeasurement = Measurement[Vector3]

// Offset returns a copy of m with delta added to its data. Displacement
// readings become absolute position readings this way.
func Offset(m VectorMeasurement, delta Vector3) VectorMeasurement {
	m.Data = m.Data.Add(delta)
	return m
}
