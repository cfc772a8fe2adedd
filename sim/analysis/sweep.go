package analysis

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ttft-sim/ttft-sim/sim"
	"github.com/ttft-sim/ttft-sim/sim/workload"
)

// DefaultSweepRates spans light load through decode saturation for the
// reference arrangements.
var DefaultSweepRates = []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0}

// Utilization levels marking a pool as the gating resource and as
// saturated.
const (
	bottleneckUtilization = 0.8
	saturationUtilization = 0.95
)

// SweepSetup is one named cluster arrangement visited by a rate sweep. The
// sweep overwrites Base's arrival rate at every step.
type SweepSetup struct {
	Name string
	Base sim.Config
}

// sweepBase is the shared sweep workload: the battery token mix on a short
// horizon.
func sweepBase() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.SimSeconds = 300
	cfg.WarmupSeconds = 30
	cfg.PromptTokens = workload.TokenSpec{Mean: 6.0, Sigma: 0.8, Min: 8}
	cfg.OutputTokens = workload.TokenSpec{Mean: 5.0, Sigma: 1.0, Min: 16}
	return cfg
}

func disaggSetup(name string, prefillGPUs, decodeGPUs int, decodeRate float64) SweepSetup {
	cfg := sweepBase()
	cfg.Mode = sim.ModeDisagg
	cfg.Disagg = sim.DisaggConfig{
		PrefillGPUs:         prefillGPUs,
		DecodeGPUs:          decodeGPUs,
		PrefillTokensPerSec: 8000,
		DecodeTokensPerSec:  decodeRate,
	}
	return SweepSetup{Name: name, Base: cfg}
}

// DisaggSweepSetups is the decode-sizing grid: the 2+2 baseline, halved and
// doubled decode pools, and a half-rate decode.
func DisaggSweepSetups() []SweepSetup {
	return []SweepSetup{
		disaggSetup("2_prefill_2_decode", 2, 2, 2000),
		disaggSetup("2_prefill_1_decode", 2, 1, 2000),
		disaggSetup("2_prefill_4_decode", 2, 4, 2000),
		disaggSetup("2_prefill_2_decode_slow", 2, 2, 1000),
	}
}

// MonoSweepSetup is the monolithic comparison point: four shared GPUs.
func MonoSweepSetup() SweepSetup {
	cfg := sweepBase()
	cfg.Mode = sim.ModeMono
	cfg.Mono = sim.MonoConfig{GPUs: 4, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000}
	return SweepSetup{Name: "4_gpu_mono", Base: cfg}
}

// SetupByName finds a reference arrangement by name.
func SetupByName(name string) (SweepSetup, bool) {
	for _, s := range append(DisaggSweepSetups(), MonoSweepSetup()) {
		if s.Name == name {
			return s, true
		}
	}
	return SweepSetup{}, false
}

// SetupNames lists the reference arrangements in display order.
func SetupNames() []string {
	setups := append(DisaggSweepSetups(), MonoSweepSetup())
	names := make([]string, len(setups))
	for i, s := range setups {
		names[i] = s.Name
	}
	return names
}

// RateResult is one sweep point: measured statistics joined with the
// closed-form estimates at that arrival rate. Map fields are keyed by pool
// name.
type RateResult struct {
	ArrivalRate   float64            `json:"arrival_rate"`
	Mode          string             `json:"mode"`
	MeanTTFT      Stat               `json:"mean_ttft_s"`
	P50TTFT       Stat               `json:"p50_ttft_s"`
	P90TTFT       Stat               `json:"p90_ttft_s"`
	P99TTFT       Stat               `json:"p99_ttft_s"`
	ThroughputRPS float64            `json:"throughput_rps"`
	Utilization   map[string]float64 `json:"utilization"`
	QueueWait     map[string]Stat    `json:"queue_wait_s"`
	ServiceTime   map[string]float64 `json:"service_time_s"`
}

// SetupResults groups one arrangement's sweep points with the load
// thresholds derived from them. Thresholds are nil when never crossed.
type SetupResults struct {
	Results             []RateResult `json:"results"`
	BottleneckThreshold *float64     `json:"bottleneck_threshold"`
	SaturationPoint     *float64     `json:"saturation_point"`
}

// SweepParams echoes the sweep inputs into the report header.
type SweepParams struct {
	SimSeconds    float64   `json:"simulation_seconds"`
	WarmupSeconds float64   `json:"warmup_seconds"`
	Rates         []float64 `json:"arrival_rates"`
}

// SweepReport is the JSON artifact of a full rate sweep.
type SweepReport struct {
	Params          SweepParams              `json:"analysis_parameters"`
	Configurations  map[string]*SetupResults `json:"configurations"`
	KeyInsights     []string                 `json:"key_insights"`
	Recommendations []string                 `json:"recommendations"`
}

// Write saves the report as indented JSON.
func (r *SweepReport) Write(path string) error { return writeJSON(path, r) }

// RunSweep simulates every (setup, rate) pair and assembles the joined
// report. Header parameters come from the first setup.
func RunSweep(setups []SweepSetup, rates []float64) (*SweepReport, error) {
	if len(setups) == 0 {
		return nil, fmt.Errorf("no sweep setups")
	}
	if len(rates) == 0 {
		rates = DefaultSweepRates
	}

	report := &SweepReport{
		Params: SweepParams{
			SimSeconds:    setups[0].Base.SimSeconds,
			WarmupSeconds: setups[0].Base.WarmupSeconds,
			Rates:         rates,
		},
		Configurations: make(map[string]*SetupResults, len(setups)),
	}

	for _, setup := range setups {
		results := make([]RateResult, 0, len(rates))
		for _, rate := range rates {
			cfg := setup.Base
			cfg.Arrival.RatePerSec = rate
			point, err := runRatePoint(cfg)
			if err != nil {
				return nil, fmt.Errorf("sweep %s at %.2f req/s: %w", setup.Name, rate, err)
			}
			gating := BottleneckPool(cfg.Mode)
			logrus.Infof("sweep %s: rate=%.2f/s mean TTFT=%.3fs %s util=%.2f",
				setup.Name, rate, point.MeanTTFT, gating, point.Utilization[gating])
			results = append(results, point)
		}

		sr := &SetupResults{
			Results:             results,
			BottleneckThreshold: minRateAbove(results, setup.Base.Mode, bottleneckUtilization),
			SaturationPoint:     minRateAbove(results, setup.Base.Mode, saturationUtilization),
		}
		report.Configurations[setup.Name] = sr

		if sr.BottleneckThreshold != nil {
			report.KeyInsights = append(report.KeyInsights,
				fmt.Sprintf("%s: bottleneck at %.1f req/s", setup.Name, *sr.BottleneckThreshold))
		}
		if sr.SaturationPoint != nil {
			report.KeyInsights = append(report.KeyInsights,
				fmt.Sprintf("%s: saturation at %.1f req/s", setup.Name, *sr.SaturationPoint))
		}
	}

	report.Recommendations = sweepRecommendations(setups, rates, report.Configurations)
	return report, nil
}

// runRatePoint runs one simulation and joins the closed-form estimates.
func runRatePoint(cfg sim.Config) (RateResult, error) {
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return RateResult{}, err
	}
	res := s.Run()

	waits := make(map[string]float64)
	for name, m := range PoolModels(cfg) {
		waits[name] = m.AvgWait(cfg.Arrival.RatePerSec)
	}

	return RateResult{
		ArrivalRate:   cfg.Arrival.RatePerSec,
		Mode:          res.Mode,
		MeanTTFT:      Stat(res.MeanTTFT),
		P50TTFT:       Stat(res.P50TTFT),
		P90TTFT:       Stat(res.P90TTFT),
		P99TTFT:       Stat(res.P99TTFT),
		ThroughputRPS: res.ThroughputRPS,
		Utilization:   res.Utilization,
		QueueWait:     statMap(waits),
		ServiceTime:   ServiceSeconds(cfg),
	}, nil
}

// minRateAbove returns the lowest swept rate whose gating-pool utilization
// exceeds level, or nil.
func minRateAbove(results []RateResult, mode string, level float64) *float64 {
	pool := BottleneckPool(mode)
	var best *float64
	for _, r := range results {
		if r.Utilization[pool] > level && (best == nil || r.ArrivalRate < *best) {
			rate := r.ArrivalRate
			best = &rate
		}
	}
	return best
}

// sweepRecommendations compares arrangements: the lowest mean TTFT at the
// highest swept rate, and how many arrangements hit their bottleneck.
func sweepRecommendations(setups []SweepSetup, rates []float64, configs map[string]*SetupResults) []string {
	stress := rates[0]
	for _, r := range rates[1:] {
		if r > stress {
			stress = r
		}
	}

	var recs []string
	bestName := ""
	bestTTFT := math.Inf(1)
	for _, setup := range setups {
		for _, point := range configs[setup.Name].Results {
			if point.ArrivalRate == stress && float64(point.MeanTTFT) < bestTTFT {
				bestTTFT = float64(point.MeanTTFT)
				bestName = setup.Name
			}
		}
	}
	if bestName != "" {
		recs = append(recs, fmt.Sprintf("best arrangement at %.1f req/s: %s (%.2fs mean TTFT)",
			stress, bestName, bestTTFT))
	}

	limited := 0
	for _, sr := range configs {
		if sr.BottleneckThreshold != nil {
			limited++
		}
	}
	if limited > 0 {
		recs = append(recs, fmt.Sprintf("consider more capacity on the gating pool for %d of %d arrangements",
			limited, len(setups)))
	}
	return recs
}
