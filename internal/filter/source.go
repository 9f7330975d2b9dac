package filter

import "github.com/banshee-data/anchor-pose/internal/particle"

// Source is a stream of timestamped 3-vector readings: positions, angles or
// displacements. Sources are owned by the collaborator layer that polls the
// hardware; filters only query them.
type Source interface {
	// Closest returns every reading with from <= ts <= to whose timestamp
	// is nearest to target. Several readings are returned when they tie.
	Closest(target, from, to int64) []particle.VectorMeasurement
	// Between returns the readings with from < ts <= to, oldest first.
	Between(from, to int64) []particle.VectorMeasurement
}

// Retriever collects the measurements that feed one filter cycle.
type Retriever interface {
	RetrieveMeasurements(previous, current int64) []particle.VectorMeasurement
}

func closestFrom(sources []Source, previous, current int64) []particle.VectorMeasurement {
	var out []particle.VectorMeasurement
	for _, s := range sources {
		out = append(out, s.Closest(current, previous, current)...)
	}
	return out
}
