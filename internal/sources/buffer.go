// Package sources provides measurement stores that sensor glue pushes
// readings into and filters query by timestamp.
package sources

import (
	"sort"
	"sync"

	"github.com/banshee-data/anchor-pose/internal/particle"
)

// DefaultCapacity is the number of readings a Buffer keeps when none is
// given.
const DefaultCapacity = 256

// Buffer is a bounded, time-ordered store of readings from one sensor. Push
// may be called from the goroutine polling the sensor while the filter
// goroutine queries it.
type Buffer struct {
	mu       sync.RWMutex
	name     string
	capacity int
	readings []particle.VectorMeasurement
	dropped  int
}

// NewBuffer creates an empty buffer. capacity <= 0 selects DefaultCapacity.
func NewBuffer(name string, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		name:     name,
		capacity: capacity,
		readings: make([]particle.VectorMeasurement, 0, capacity),
	}
}

// Name returns the sensor name the buffer was created with.
func (b *Buffer) Name() string { return b.name }

// Push stores m, keeping readings ordered by timestamp. When the buffer is
// full the oldest reading is dropped.
func (b *Buffer) Push(m particle.VectorMeasurement) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.readings), func(i int) bool {
		return b.readings[i].Timestamp > m.Timestamp
	})
	b.readings = append(b.readings, particle.VectorMeasurement{})
	copy(b.readings[i+1:], b.readings[i:])
	b.readings[i] = m

	if len(b.readings) > b.capacity {
		b.readings = append(b.readings[:0], b.readings[1:]...)
		b.dropped++
	}
}

// PushReading builds a measurement and stores it.
func (b *Buffer) PushReading(data particle.Vector3, timestamp int64, stddev float64, kind particle.DistributionKind) error {
	m, err := particle.NewMeasurement(data, timestamp, stddev, kind)
	if err != nil {
		return err
	}
	b.Push(m)
	return nil
}

// Closest returns every reading in [from, to] whose timestamp is nearest to
// target.
func (b *Buffer) Closest(target, from, to int64) []particle.VectorMeasurement {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lo, hi := b.span(from, to, true)
	if lo >= hi {
		return nil
	}
	best := int64(-1)
	for _, m := range b.readings[lo:hi] {
		if d := absDiff(m.Timestamp, target); best < 0 || d < best {
			best = d
		}
	}
	var out []particle.VectorMeasurement
	for _, m := range b.readings[lo:hi] {
		if absDiff(m.Timestamp, target) == best {
			out = append(out, m)
		}
	}
	return out
}

// Between returns the readings with from < ts <= to, oldest first.
func (b *Buffer) Between(from, to int64) []particle.VectorMeasurement {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lo, hi := b.span(from, to, false)
	if lo >= hi {
		return nil
	}
	out := make([]particle.VectorMeasurement, hi-lo)
	copy(out, b.readings[lo:hi])
	return out
}

// Prune drops readings older than before and returns how many were removed.
func (b *Buffer) Prune(before int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := sort.Search(len(b.readings), func(i int) bool {
		return b.readings[i].Timestamp >= before
	})
	b.readings = append(b.readings[:0], b.readings[i:]...)
	return i
}

// Len returns the number of stored readings.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.readings)
}

// Dropped returns how many readings were discarded because the buffer was
// full.
func (b *Buffer) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// span returns the index range of readings between from and to. from is
// inclusive when includeFrom is set; to is always inclusive.
func (b *Buffer) span(from, to int64, includeFrom bool) (int, int) {
	lo := sort.Search(len(b.readings), func(i int) bool {
		if includeFrom {
			return b.readings[i].Timestamp >= from
		}
		return b.readings[i].Timestamp > from
	})
	hi := sort.Search(len(b.readings), func(i int) bool {
		return b.readings[i].Timestamp > to
	})
	return lo, hi
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
