package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Histogram tracks a bounded window of request durations and calculates percentiles.
type Histogram struct {
	samples []float64 // milliseconds
	total   uint64    // samples ever recorded, including trimmed ones
	sum     float64   // sum of every sample ever recorded
	mu      sync.RWMutex
	maxSize int
}

// NewHistogram creates a new histogram keeping at most maxSize samples.
// When maxSize is exceeded, the oldest 20% are dropped.
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a duration sample to the histogram.
func (h *Histogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ms := float64(d.Microseconds()) / 1000.0
	h.samples = append(h.samples, ms)
	h.total++
	h.sum += ms

	if len(h.samples) > h.maxSize {
		h.samples = h.samples[h.maxSize/5:]
	}
}

// Mean returns the average duration in milliseconds over the window.
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	var sum float64
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Percentile returns the value at the given percentile (0-100), interpolating
// linearly between neighbouring samples.
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()
	sorted := slices.Clone(h.samples)
	h.mu.RUnlock()

	if len(sorted) == 0 {
		return 0
	}
	slices.Sort(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// Max returns the largest sample in the window.
func (h *Histogram) Max() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	return slices.Max(h.samples)
}

// Count returns the number of samples in the window.
func (h *Histogram) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Totals returns the number and sum (ms) of every sample ever recorded.
func (h *Histogram) Totals() (count uint64, sum float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total, h.sum
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
	h.total = 0
	h.sum = 0
}
