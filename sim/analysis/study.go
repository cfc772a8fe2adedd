package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ttft-sim/ttft-sim/sim"
)

// Mean-TTFT watermarks separating presets dominated by queueing from
// presets that barely queue, and the report thresholds for calling out a
// single preset.
const (
	highQueueingTTFT   = 1.0
	lowQueueingTTFT    = 0.5
	insightTTFT        = 2.0
	insightUtilization = 0.9
)

// Study runs scenario presets and joins the measured statistics with the
// closed-form pool estimates. Zero horizon fields keep the defaults.
type Study struct {
	SimSeconds    float64
	WarmupSeconds float64
}

// TTFTMetrics groups the TTFT summary of one run, in seconds.
type TTFTMetrics struct {
	Mean Stat `json:"mean"`
	P50  Stat `json:"p50"`
	P90  Stat `json:"p90"`
	P99  Stat `json:"p99"`
}

// ScenarioResult is one preset's outcome. Map fields are keyed by pool
// name.
type ScenarioResult struct {
	Name          string             `json:"name"`
	Mode          string             `json:"mode"`
	ArrivalRate   float64            `json:"arrival_rate"`
	TTFT          TTFTMetrics        `json:"ttft_metrics"`
	ThroughputRPS float64            `json:"throughput_rps"`
	Utilization   map[string]float64 `json:"utilization"`
	QueueWait     map[string]Stat    `json:"queue_wait_s"`
	ServiceTime   map[string]float64 `json:"service_time_s"`
}

func (st *Study) effectiveHorizon() (simSeconds, warmupSeconds float64) {
	base := sim.DefaultConfig()
	simSeconds, warmupSeconds = base.SimSeconds, base.WarmupSeconds
	if st.SimSeconds > 0 {
		simSeconds = st.SimSeconds
	}
	if st.WarmupSeconds > 0 {
		warmupSeconds = st.WarmupSeconds
	}
	return simSeconds, warmupSeconds
}

// configFor applies a preset over the defaults plus the study's horizon.
func (st *Study) configFor(sc sim.Scenario) sim.Config {
	cfg := sc.Apply(sim.DefaultConfig())
	cfg.SimSeconds, cfg.WarmupSeconds = st.effectiveHorizon()
	return cfg
}

// RunScenario runs one preset.
func (st *Study) RunScenario(sc sim.Scenario) (ScenarioResult, error) {
	return st.runConfig(sc.Name, st.configFor(sc))
}

// RunScenarioAtRate reruns a preset with its arrival rate overridden.
func (st *Study) RunScenarioAtRate(sc sim.Scenario, rate float64) (ScenarioResult, error) {
	cfg := st.configFor(sc)
	cfg.Arrival.RatePerSec = rate
	return st.runConfig(sc.Name, cfg)
}

// RunAll runs the whole battery in display order.
func (st *Study) RunAll() ([]ScenarioResult, error) {
	scenarios := sim.Scenarios()
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		r, err := st.RunScenario(sc)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// LoadSweep reruns one preset across arrival rates.
func (st *Study) LoadSweep(sc sim.Scenario, rates []float64) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, 0, len(rates))
	for _, rate := range rates {
		r, err := st.RunScenarioAtRate(sc, rate)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (st *Study) runConfig(name string, cfg sim.Config) (ScenarioResult, error) {
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("scenario %s: %w", name, err)
	}
	res := s.Run()

	waits := make(map[string]float64)
	for pool, m := range PoolModels(cfg) {
		waits[pool] = m.AvgWait(cfg.Arrival.RatePerSec)
	}

	result := ScenarioResult{
		Name:        name,
		Mode:        res.Mode,
		ArrivalRate: cfg.Arrival.RatePerSec,
		TTFT: TTFTMetrics{
			Mean: Stat(res.MeanTTFT),
			P50:  Stat(res.P50TTFT),
			P90:  Stat(res.P90TTFT),
			P99:  Stat(res.P99TTFT),
		},
		ThroughputRPS: res.ThroughputRPS,
		Utilization:   res.Utilization,
		QueueWait:     statMap(waits),
		ServiceTime:   ServiceSeconds(cfg),
	}
	logrus.Infof("scenario %s: mean TTFT %.3fs, P99 %.3fs, throughput %.2f req/s",
		name, result.TTFT.Mean, result.TTFT.P99, result.ThroughputRPS)
	return result, nil
}

// StudyParams echoes the study inputs into the report header.
type StudyParams struct {
	SimSeconds     float64 `json:"simulation_seconds"`
	WarmupSeconds  float64 `json:"warmup_seconds"`
	TotalScenarios int     `json:"total_scenarios"`
}

// StudySummary aggregates the battery: the spread of mean TTFT across
// presets and how many sit above or below the queueing watermarks.
type StudySummary struct {
	MeanTTFTMin  Stat `json:"mean_ttft_min_s"`
	MeanTTFTMax  Stat `json:"mean_ttft_max_s"`
	MeanTTFTVar  Stat `json:"mean_ttft_variance"`
	HighQueueing int  `json:"scenarios_with_high_queueing"`
	LowQueueing  int  `json:"scenarios_with_low_queueing"`
}

// SizingResult reports the maximum arrival rate meeting a mean TTFT target
// under one arrangement, per the closed-form model.
type SizingResult struct {
	Scenario      string  `json:"scenario"`
	TargetTTFT    float64 `json:"target_ttft_s"`
	MaxRate       float64 `json:"max_rate_rps"`
	AchievedTTFT  Stat    `json:"achieved_ttft_s"`
	MaxStableRate float64 `json:"max_stable_rate_rps"`
}

// StudyReport is the JSON artifact of a queue impact study.
type StudyReport struct {
	Params      StudyParams      `json:"study_parameters"`
	Scenarios   []ScenarioResult `json:"scenarios"`
	Summary     StudySummary     `json:"summary_statistics"`
	KeyInsights []string         `json:"key_insights"`
	Sizing      *SizingResult    `json:"sizing,omitempty"`
}

// Write saves the report as indented JSON.
func (r *StudyReport) Write(path string) error { return writeJSON(path, r) }

// Report assembles the study report from finished results.
func (st *Study) Report(results []ScenarioResult) *StudyReport {
	simSeconds, warmupSeconds := st.effectiveHorizon()
	return &StudyReport{
		Params: StudyParams{
			SimSeconds:     simSeconds,
			WarmupSeconds:  warmupSeconds,
			TotalScenarios: len(results),
		},
		Scenarios:   results,
		Summary:     summarize(results),
		KeyInsights: studyInsights(results),
	}
}

// SizeForTTFT finds the highest arrival rate whose closed-form mean TTFT
// stays within target for the preset's arrangement. MaxStableRate carries
// the capacity bound with the safety margin applied, the cap that rules
// when no TTFT target binds.
func (st *Study) SizeForTTFT(sc sim.Scenario, target float64) (*SizingResult, error) {
	cfg := st.configFor(sc)
	rate, err := MaxRateForTTFT(cfg, target)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	models := PoolModels(cfg)
	stable := models[BottleneckPool(cfg.Mode)].MaxStableRate()
	if cfg.Mode == sim.ModeDisagg {
		stable = math.Min(stable, models[sim.PoolPrefill].MaxStableRate())
	}

	return &SizingResult{
		Scenario:      sc.Name,
		TargetTTFT:    target,
		MaxRate:       rate,
		AchievedTTFT:  Stat(MeanTTFTEstimate(cfg, rate)),
		MaxStableRate: stable * float64(1-StabilitySafetyFraction),
	}, nil
}

func summarize(results []ScenarioResult) StudySummary {
	s := StudySummary{
		MeanTTFTMin: Stat(math.NaN()),
		MeanTTFTMax: Stat(math.NaN()),
		MeanTTFTVar: Stat(math.NaN()),
	}
	var means []float64
	for _, r := range results {
		m := float64(r.TTFT.Mean)
		if math.IsNaN(m) {
			continue
		}
		means = append(means, m)
		if m > highQueueingTTFT {
			s.HighQueueing++
		}
		if m < lowQueueingTTFT {
			s.LowQueueing++
		}
	}
	if len(means) == 0 {
		return s
	}

	minV, maxV, sum := means[0], means[0], 0.0
	for _, m := range means {
		minV = math.Min(minV, m)
		maxV = math.Max(maxV, m)
		sum += m
	}
	mean := sum / float64(len(means))
	variance := 0.0
	for _, m := range means {
		variance += (m - mean) * (m - mean)
	}
	s.MeanTTFTMin = Stat(minV)
	s.MeanTTFTMax = Stat(maxV)
	s.MeanTTFTVar = Stat(variance / float64(len(means)))
	return s
}

func studyInsights(results []ScenarioResult) []string {
	var insights []string
	for _, r := range results {
		if m := float64(r.TTFT.Mean); m > insightTTFT {
			insights = append(insights,
				fmt.Sprintf("high queueing impact in %s: %.2fs mean TTFT", r.Name, m))
		}
		pools := make([]string, 0, len(r.Utilization))
		for pool := range r.Utilization {
			pools = append(pools, pool)
		}
		sort.Strings(pools)
		for _, pool := range pools {
			if util := r.Utilization[pool]; util > insightUtilization {
				insights = append(insights,
					fmt.Sprintf("%s bottleneck in %s: %.2f utilization", pool, r.Name, util))
			}
		}
	}
	return insights
}
