// Tracks per-run TTFT samples and request accounting for final reporting.

package sim

import (
	"math"
	"sort"
)

// Sample is one recorded TTFT observation: the measured value and the
// instant it occurred, both in ticks. The occurrence time, not the request's
// arrival time, decides warmup filtering.
type Sample struct {
	Value int64 // TTFT in ticks
	At    int64 // first-token instant in ticks
}

// Metrics accumulates observations for one run. Request processes append
// during the run; everything is read-only once the run ends. The simulation
// is single-threaded, so no locking.
type Metrics struct {
	samples   []Sample
	generated int64
	completed int64
}

// NewMetrics creates an empty accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordTTFT appends one sample unconditionally, O(1) amortized. Warmup
// filtering happens at summary time.
func (m *Metrics) RecordTTFT(value, at int64) {
	m.samples = append(m.samples, Sample{Value: value, At: at})
}

// MarkGenerated counts an emitted request.
func (m *Metrics) MarkGenerated() {
	m.generated++
}

// MarkCompleted counts a fully finished request.
func (m *Metrics) MarkCompleted() {
	m.completed++
}

// Generated returns the number of requests emitted by the arrival process.
func (m *Metrics) Generated() int64 {
	return m.generated
}

// Completed returns the number of requests that finished all decode work.
func (m *Metrics) Completed() int64 {
	return m.completed
}

// Samples returns all recorded samples in record order.
func (m *Metrics) Samples() []Sample {
	return m.samples
}

// Summary filters samples to occurrence time >= warmupCutoff ticks and
// summarizes the surviving values in seconds.
func (m *Metrics) Summary(warmupCutoff int64) Distribution {
	return NewDistribution(m.PostWarmupValues(warmupCutoff))
}

// PostWarmupValues returns the raw TTFT values in seconds for samples
// occurring at or after warmupCutoff, in record order. External reporting
// collaborators consume these directly.
func (m *Metrics) PostWarmupValues(warmupCutoff int64) []float64 {
	values := make([]float64, 0, len(m.samples))
	for _, s := range m.samples {
		if s.At >= warmupCutoff {
			values = append(values, TicksToSeconds(s.Value))
		}
	}
	return values
}

// Distribution captures the statistical summary of a set of TTFT values in
// seconds. Count 0 carries NaN statistics: an empty post-warmup sample set
// is a legitimate outcome, not an error.
type Distribution struct {
	Count int
	Mean  float64
	P50   float64
	P90   float64
	P99   float64
	Min   float64
	Max   float64
}

// NewDistribution computes a Distribution from raw values.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		nan := math.NaN()
		return Distribution{Count: 0, Mean: nan, P50: nan, P90: nan, P99: nan, Min: nan, Max: nan}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return Distribution{
		Count: len(sorted),
		Mean:  sum / float64(len(sorted)),
		P50:   percentile(sorted, 50),
		P90:   percentile(sorted, 90),
		P99:   percentile(sorted, 99),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
