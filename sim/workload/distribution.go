// Package workload provides the stochastic generators feeding a simulation:
// per-request token counts and inter-arrival gaps. Samplers draw from caller
// supplied rand.Rand streams so that independent concerns (arrivals, prompt
// lengths, output lengths) never perturb each other.
package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// TokenSampler generates per-request token counts.
type TokenSampler interface {
	// Sample returns a positive token count (>= 1).
	Sample(rng *rand.Rand) int
}

// LogNormalSampler draws token counts as exp(mu + sigma*Z), truncated to an
// integer and clamped to a floor. Heavy right tail; the workhorse for both
// prompt and output lengths.
type LogNormalSampler struct {
	mu    float64 // log-space mean
	sigma float64 // log-space sigma
	min   int     // clamp floor, >= 1
}

func (s *LogNormalSampler) Sample(rng *rand.Rand) int {
	z := rng.NormFloat64()
	val := math.Exp(s.mu + s.sigma*z)
	// Guard against +Inf from extreme sigma values
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return s.min
	}
	n := int(val)
	if n < s.min {
		return s.min
	}
	return n
}

// FixedSampler always returns the same token count. Zero-variance workloads
// keep closed-form cross-checks exact.
type FixedSampler struct {
	value int
}

func (s *FixedSampler) Sample(_ *rand.Rand) int {
	return s.value
}

// TokenSpec parameterizes a token count distribution. An empty Dist means
// "lognormal", matching the common case.
type TokenSpec struct {
	Dist  string  `yaml:"dist,omitempty"`  // "lognormal" or "fixed"
	Mean  float64 `yaml:"mean,omitempty"`  // log-space mean (lognormal)
	Sigma float64 `yaml:"sigma,omitempty"` // log-space sigma (lognormal)
	Min   int     `yaml:"min,omitempty"`   // floor applied after integer truncation
	Value int     `yaml:"value,omitempty"` // token count (fixed)
}

// Valid value registry.
var validTokenDists = map[string]bool{
	"": true, "lognormal": true, "fixed": true,
}

func (s TokenSpec) kind() string {
	if s.Dist == "" {
		return "lognormal"
	}
	return s.Dist
}

// Validate checks the field combination; name prefixes error messages.
func (s TokenSpec) Validate(name string) error {
	if !validTokenDists[s.Dist] {
		return fmt.Errorf("%s: unknown distribution %q; valid: lognormal, fixed", name, s.Dist)
	}
	switch s.kind() {
	case "lognormal":
		if math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) {
			return fmt.Errorf("%s.mean must be a finite number, got %f", name, s.Mean)
		}
		if math.IsNaN(s.Sigma) || math.IsInf(s.Sigma, 0) || s.Sigma < 0 {
			return fmt.Errorf("%s.sigma must be finite and non-negative, got %f", name, s.Sigma)
		}
		if s.Min < 1 {
			return fmt.Errorf("%s.min must be >= 1, got %d", name, s.Min)
		}
	case "fixed":
		if s.Value < 1 {
			return fmt.Errorf("%s.value must be >= 1, got %d", name, s.Value)
		}
	}
	return nil
}

// NewTokenSampler creates a TokenSampler from a validated spec.
func NewTokenSampler(spec TokenSpec) (TokenSampler, error) {
	switch spec.kind() {
	case "lognormal":
		return &LogNormalSampler{mu: spec.Mean, sigma: spec.Sigma, min: spec.Min}, nil
	case "fixed":
		return &FixedSampler{value: spec.Value}, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Dist)
	}
}

// RealMean returns the real-space mean of the distribution, ignoring the
// integer floor and clamp.
func (s TokenSpec) RealMean() float64 {
	if s.kind() == "fixed" {
		return float64(s.Value)
	}
	return math.Exp(s.Mean + 0.5*s.Sigma*s.Sigma)
}

// RealStdDev returns the real-space standard deviation of the distribution,
// ignoring the integer floor and clamp.
func (s TokenSpec) RealStdDev() float64 {
	if s.kind() == "fixed" {
		return 0
	}
	sigma2 := s.Sigma * s.Sigma
	return math.Sqrt((math.Exp(sigma2) - 1) * math.Exp(2*s.Mean+sigma2))
}
