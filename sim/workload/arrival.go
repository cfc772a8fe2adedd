package workload

import (
	"math/rand"
)

// ArrivalSampler generates inter-arrival gaps.
type ArrivalSampler interface {
	// SampleGap returns the next inter-arrival gap in ticks.
	// Always returns a positive value (>= 1).
	SampleGap(rng *rand.Rand) int64
}

// PoissonSampler generates exponentially-distributed gaps, yielding a
// Poisson arrival process of the configured rate. Mean gap = 1/rate.
type PoissonSampler struct {
	ratePerTick float64 // requests per tick
}

// NewPoissonSampler creates a Poisson arrival sampler. ratePerTick is the
// arrival rate in requests per tick of simulated time.
func NewPoissonSampler(ratePerTick float64) *PoissonSampler {
	// Floor avoids division blowup when a sweep passes a vanishing rate
	if ratePerTick < 1e-15 {
		ratePerTick = 1e-15
	}
	return &PoissonSampler{ratePerTick: ratePerTick}
}

func (s *PoissonSampler) SampleGap(rng *rand.Rand) int64 {
	gap := int64(rng.ExpFloat64() / s.ratePerTick)
	if gap < 1 {
		return 1
	}
	return gap
}
