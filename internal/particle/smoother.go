package particle

import "fmt"

// DefaultSmootherCapacity bounds the history of a WindowSmoother regardless
// of its time window.
const DefaultSmootherCapacity = 512

// Smoother produces a temporally smoothed value from a raw series of
// per-cycle estimates.
type Smoother interface {
	// GetSmoothedResult records raw at timestamp (Unix millis) and returns the
	// per-axis average of the retained history.
	GetSmoothedResult(raw Vector3, timestamp int64, avg AveragingFunc) Vector3
	// Clone returns a smoother with the same settings and an empty history.
	Clone() Smoother
	// Reset drops the history.
	Reset()
}

type smoothEntry struct {
	timestamp int64
	value     Vector3
}

// WindowSmoother averages every sample recorded within the last Window
// milliseconds. History is kept in a fixed-capacity ring buffer.
type WindowSmoother struct {
	window int64
	ring   []smoothEntry
	head   int // index of the oldest entry
	size   int
}

// NewWindowSmoother returns a smoother over a window of windowMillis
// milliseconds. capacity bounds the number of retained samples; zero selects
// DefaultSmootherCapacity.
func NewWindowSmoother(windowMillis int64, capacity int) (*WindowSmoother, error) {
	if windowMillis < 0 {
		return nil, fmt.Errorf("%w: smoothing window must be non-negative, got %d", ErrConfiguration, windowMillis)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: smoother capacity must be non-negative, got %d", ErrConfiguration, capacity)
	}
	if capacity == 0 {
		capacity = DefaultSmootherCapacity
	}
	return &WindowSmoother{
		window: windowMillis,
		ring:   make([]smoothEntry, capacity),
	}, nil
}

// Window returns the smoothing window in milliseconds.
func (s *WindowSmoother) Window() int64 { return s.window }

// Len returns the number of retained samples.
func (s *WindowSmoother) Len() int { return s.size }

// GetSmoothedResult implements Smoother. Entries older than
// timestamp - Window are evicted before averaging.
func (s *WindowSmoother) GetSmoothedResult(raw Vector3, timestamp int64, avg AveragingFunc) Vector3 {
	s.push(smoothEntry{timestamp: timestamp, value: raw})
	cutoff := timestamp - s.window
	for s.size > 0 && s.ring[s.head].timestamp < cutoff {
		s.head = (s.head + 1) % len(s.ring)
		s.size--
	}

	var out Vector3
	axis := make([]float64, s.size)
	for d := 0; d < 3; d++ {
		for k := 0; k < s.size; k++ {
			axis[k] = s.ring[(s.head+k)%len(s.ring)].value[d]
		}
		out[d] = avg(axis)
	}
	return out
}

// Clone implements Smoother.
func (s *WindowSmoother) Clone() Smoother {
	return &WindowSmoother{
		window: s.window,
		ring:   make([]smoothEntry, len(s.ring)),
	}
}

// Reset implements Smoother.
func (s *WindowSmoother) Reset() {
	s.head = 0
	s.size = 0
}

func (s *WindowSmoother) push(e smoothEntry) {
	if s.size == len(s.ring) {
		// Full: overwrite the oldest entry.
		s.ring[s.head] = e
		s.head = (s.head + 1) % len(s.ring)
		return
	}
	s.ring[(s.head+s.size)%len(s.ring)] = e
	s.size++
}
