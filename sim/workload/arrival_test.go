package workload

import (
	"math"
	"math/rand"
	"testing"
)

func TestPoissonSampler_MeanGapMatchesRate(t *testing.T) {
	// GIVEN a Poisson sampler at 2 req/sec (2e-6 req/µs)
	rng := rand.New(rand.NewSource(42))
	s := NewPoissonSampler(2.0 / 1e6)

	// WHEN 10000 gaps are sampled
	n := 10000
	sum := int64(0)
	for i := 0; i < n; i++ {
		sum += s.SampleGap(rng)
	}
	mean := float64(sum) / float64(n)

	// THEN mean gap ≈ 1/rate = 500000 ticks (within 5%)
	want := 1e6 / 2.0
	if math.Abs(mean-want)/want > 0.05 {
		t.Errorf("mean gap = %.0f ticks, want ≈ %.0f (within 5%%)", mean, want)
	}
}

func TestPoissonSampler_GapCVNearOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewPoissonSampler(10.0 / 1e6)
	n := 10000
	gaps := make([]float64, n)
	for i := 0; i < n; i++ {
		gaps[i] = float64(s.SampleGap(rng))
	}
	cv := coefficientOfVariation(gaps)
	if cv < 0.8 || cv > 1.2 {
		t.Errorf("poisson CV = %.2f, want ≈ 1.0", cv)
	}
}

func TestPoissonSampler_GapsAlwaysPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	// Absurdly high rate forces the 1-tick floor
	s := NewPoissonSampler(1.0)
	for i := 0; i < 10000; i++ {
		if gap := s.SampleGap(rng); gap < 1 {
			t.Errorf("sample %d: gap %d, want >= 1", i, gap)
			break
		}
	}
}

func TestPoissonSampler_SameSeedSameGaps(t *testing.T) {
	s := NewPoissonSampler(0.5 / 1e6)
	rng1 := rand.New(rand.NewSource(7))
	rng2 := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		g1 := s.SampleGap(rng1)
		g2 := s.SampleGap(rng2)
		if g1 != g2 {
			t.Fatalf("draw %d: gaps diverged (%d vs %d) for identical seeds", i, g1, g2)
		}
	}
}

func TestNewPoissonSampler_ZeroRateDoesNotDivideByZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewPoissonSampler(0)
	if gap := s.SampleGap(rng); gap < 1 {
		t.Errorf("gap = %d, want >= 1 even for degenerate rate", gap)
	}
}

func coefficientOfVariation(xs []float64) float64 {
	n := float64(len(xs))
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / n
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq/n) / mean
}
