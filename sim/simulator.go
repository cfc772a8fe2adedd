package sim

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ttft-sim/ttft-sim/sim/workload"
)

// Simulator wires one run together: validated config, scheduler, serving
// strategy, arrival process, metrics. Construct it, call Run once, read the
// Result.
type Simulator struct {
	cfg     Config
	sched   *Scheduler
	arch    Architecture
	metrics *Metrics
	gen     *arrivalGenerator
}

// NewSimulator validates cfg and assembles a run. All randomness descends
// from cfg.Seed, so two simulators built from the same config produce
// identical results.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sched := NewScheduler()
	metrics := NewMetrics()
	arch := NewArchitecture(cfg, sched, metrics)

	prompt, err := workload.NewTokenSampler(cfg.PromptTokens)
	if err != nil {
		return nil, fmt.Errorf("prompt_tokens: %w", err)
	}
	output, err := workload.NewTokenSampler(cfg.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("output_tokens: %w", err)
	}

	rng := NewPartitionedRNG(cfg.Seed)
	gen := &arrivalGenerator{
		sched:      sched,
		arch:       arch,
		metrics:    metrics,
		gaps:       workload.NewPoissonSampler(cfg.Arrival.RatePerSec / float64(TicksPerSecond)),
		prompt:     prompt,
		output:     output,
		arrivalRNG: rng.ForStream(StreamArrivals),
		promptRNG:  rng.ForStream(StreamPromptTokens),
		outputRNG:  rng.ForStream(StreamOutputTokens),
	}

	return &Simulator{cfg: cfg, sched: sched, arch: arch, metrics: metrics, gen: gen}, nil
}

// Run executes the configured horizon and summarizes the outcome. Work in
// flight at the horizon is cut, not drained, so completion counts and busy
// time cover only what finished in time. Run is single-use: build a fresh
// Simulator for each run.
func (s *Simulator) Run() Result {
	horizon := SecondsToTicks(s.cfg.SimSeconds)
	logrus.Infof("starting %s run: horizon=%.0fs rate=%.2f/s seed=%d",
		s.arch.Name(), s.cfg.SimSeconds, s.cfg.Arrival.RatePerSec, s.cfg.Seed)

	s.gen.start()
	s.sched.Run(horizon)

	values := s.metrics.PostWarmupValues(SecondsToTicks(s.cfg.WarmupSeconds))
	dist := NewDistribution(values)
	elapsed := s.sched.Now()

	util := make(map[string]float64)
	for _, p := range s.arch.Pools() {
		util[p.Name()] = p.Utilization(elapsed)
	}

	generated := s.metrics.Generated()
	completed := s.metrics.Completed()
	res := Result{
		Mode:           s.arch.Name(),
		NumSamples:     dist.Count,
		MeanTTFT:       dist.Mean,
		P50TTFT:        dist.P50,
		P90TTFT:        dist.P90,
		P99TTFT:        dist.P99,
		MinTTFT:        dist.Min,
		MaxTTFT:        dist.Max,
		ElapsedSeconds: TicksToSeconds(elapsed),
		Generated:      generated,
		Completed:      completed,
		InFlight:       generated - completed,
		ThroughputRPS:  float64(completed) / TicksToSeconds(elapsed),
		Utilization:    util,
		Samples:        values,
	}
	logrus.Infof("%s run ended: %d samples, mean TTFT %.4fs, throughput %.2f req/s",
		res.Mode, res.NumSamples, res.MeanTTFT, res.ThroughputRPS)
	return res
}

// Result is the summary of one finished run. TTFT statistics are in seconds
// and cover post-warmup samples only; with zero surviving samples they are
// NaN. Utilization is keyed by pool name.
type Result struct {
	Mode       string `json:"mode"`
	NumSamples int    `json:"num_samples"`

	MeanTTFT float64 `json:"mean_ttft_s"`
	P50TTFT  float64 `json:"p50_ttft_s"`
	P90TTFT  float64 `json:"p90_ttft_s"`
	P99TTFT  float64 `json:"p99_ttft_s"`
	MinTTFT  float64 `json:"min_ttft_s"`
	MaxTTFT  float64 `json:"max_ttft_s"`

	ElapsedSeconds float64            `json:"elapsed_s"`
	Generated      int64              `json:"generated_requests"`
	Completed      int64              `json:"completed_requests"`
	InFlight       int64              `json:"inflight_requests"`
	ThroughputRPS  float64            `json:"throughput_rps"`
	Utilization    map[string]float64 `json:"utilization"`

	// Samples holds the post-warmup TTFT values in record order, for raw
	// dumps; excluded from the summary encoding.
	Samples []float64 `json:"-"`
}

// MarshalJSON encodes NaN statistics (the zero-sample case) as null, which
// encoding/json otherwise rejects.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		MeanTTFT *float64 `json:"mean_ttft_s"`
		P50TTFT  *float64 `json:"p50_ttft_s"`
		P90TTFT  *float64 `json:"p90_ttft_s"`
		P99TTFT  *float64 `json:"p99_ttft_s"`
		MinTTFT  *float64 `json:"min_ttft_s"`
		MaxTTFT  *float64 `json:"max_ttft_s"`
	}{
		alias:    alias(r),
		MeanTTFT: nanAsNil(r.MeanTTFT),
		P50TTFT:  nanAsNil(r.P50TTFT),
		P90TTFT:  nanAsNil(r.P90TTFT),
		P99TTFT:  nanAsNil(r.P99TTFT),
		MinTTFT:  nanAsNil(r.MinTTFT),
		MaxTTFT:  nanAsNil(r.MaxTTFT),
	})
}

func nanAsNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
