package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttft-sim/ttft-sim/sim"
)

// shortSetup trims an arrangement's horizon so end-to-end sweep tests stay
// fast.
func shortSetup(name string, prefillGPUs, decodeGPUs int, decodeRate float64) SweepSetup {
	s := disaggSetup(name, prefillGPUs, decodeGPUs, decodeRate)
	s.Base.SimSeconds = 60
	s.Base.WarmupSeconds = 6
	return s
}

func TestDisaggSweepSetups_ReferenceGrid(t *testing.T) {
	setups := DisaggSweepSetups()
	require.Len(t, setups, 4)

	assert.Equal(t, "2_prefill_2_decode", setups[0].Name)
	assert.Equal(t, 2, setups[0].Base.Disagg.DecodeGPUs)
	assert.Equal(t, "2_prefill_1_decode", setups[1].Name)
	assert.Equal(t, 1, setups[1].Base.Disagg.DecodeGPUs)
	assert.Equal(t, "2_prefill_4_decode", setups[2].Name)
	assert.Equal(t, 4, setups[2].Base.Disagg.DecodeGPUs)
	assert.Equal(t, "2_prefill_2_decode_slow", setups[3].Name)
	assert.Equal(t, 1000.0, setups[3].Base.Disagg.DecodeTokensPerSec)

	for _, s := range setups {
		assert.Equal(t, sim.ModeDisagg, s.Base.Mode, s.Name)
		assert.Equal(t, 300.0, s.Base.SimSeconds, s.Name)
		assert.NoError(t, s.Base.Validate(), s.Name)
	}
}

func TestMonoSweepSetup(t *testing.T) {
	s := MonoSweepSetup()
	assert.Equal(t, "4_gpu_mono", s.Name)
	assert.Equal(t, sim.ModeMono, s.Base.Mode)
	assert.Equal(t, 4, s.Base.Mono.GPUs)
	assert.NoError(t, s.Base.Validate())
}

func TestSetupByName(t *testing.T) {
	s, ok := SetupByName("2_prefill_2_decode_slow")
	require.True(t, ok)
	assert.Equal(t, 1000.0, s.Base.Disagg.DecodeTokensPerSec)

	_, ok = SetupByName("8_decode_maybe")
	assert.False(t, ok)
}

func TestSetupNames(t *testing.T) {
	names := SetupNames()
	require.Len(t, names, 5)
	assert.Equal(t, "2_prefill_2_decode", names[0])
	assert.Equal(t, "4_gpu_mono", names[4])
}

func TestRunSweep_FindsBottleneckAndSaturation(t *testing.T) {
	// 12 req/s against a single decode GPU offers well over its ~8 req/s
	// capacity, so the pool runs essentially non-stop
	setups := []SweepSetup{shortSetup("one_decode", 2, 1, 2000)}
	report, err := RunSweep(setups, []float64{0.2, 12.0})
	require.NoError(t, err)

	sr := report.Configurations["one_decode"]
	require.NotNil(t, sr)
	require.Len(t, sr.Results, 2)

	require.NotNil(t, sr.BottleneckThreshold)
	assert.Equal(t, 12.0, *sr.BottleneckThreshold)
	require.NotNil(t, sr.SaturationPoint)
	assert.Equal(t, 12.0, *sr.SaturationPoint)

	assert.Contains(t, report.KeyInsights, "one_decode: bottleneck at 12.0 req/s")
	assert.Contains(t, report.KeyInsights, "one_decode: saturation at 12.0 req/s")
}

func TestRunSweep_StableSetupHasNilThresholds(t *testing.T) {
	setups := []SweepSetup{shortSetup("roomy", 2, 4, 2000)}
	report, err := RunSweep(setups, []float64{0.5})
	require.NoError(t, err)

	sr := report.Configurations["roomy"]
	require.NotNil(t, sr)
	assert.Nil(t, sr.BottleneckThreshold)
	assert.Nil(t, sr.SaturationPoint)
	assert.Empty(t, report.KeyInsights)

	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "best arrangement at 0.5 req/s: roomy")
}

func TestRunSweep_RejectsEmptySetups(t *testing.T) {
	_, err := RunSweep(nil, []float64{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sweep setups")
}

func TestRunSweep_JoinsClosedFormEstimates(t *testing.T) {
	setups := []SweepSetup{shortSetup("joined", 2, 2, 2000)}
	report, err := RunSweep(setups, []float64{1.0})
	require.NoError(t, err)

	point := report.Configurations["joined"].Results[0]
	assert.Equal(t, 1.0, point.ArrivalRate)
	assert.Equal(t, sim.ModeDisagg, point.Mode)
	assert.Contains(t, point.QueueWait, sim.PoolPrefill)
	assert.Contains(t, point.QueueWait, sim.PoolDecode)
	assert.InDelta(t, 0.0694, point.ServiceTime[sim.PoolPrefill], 1e-3)
	assert.InDelta(t, 0.1223, point.ServiceTime[sim.PoolDecode], 1e-3)
	assert.Greater(t, float64(point.MeanTTFT), 0.0)
	assert.Greater(t, point.ThroughputRPS, 0.0)
}

func TestSweepReport_MarshalsInfWaitAsNull(t *testing.T) {
	// At 12 req/s the decode estimate sits past the stability bound, and
	// the +Inf wait must not corrupt the JSON artifact
	setups := []SweepSetup{shortSetup("hot", 2, 1, 2000)}
	report, err := RunSweep(setups, []float64{12.0})
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"decode":null`)
}

func TestSweepReport_Write(t *testing.T) {
	report := &SweepReport{
		Params:         SweepParams{SimSeconds: 60, WarmupSeconds: 6, Rates: []float64{1}},
		Configurations: map[string]*SetupResults{},
	}
	path := filepath.Join(t.TempDir(), "sweep.json")
	require.NoError(t, report.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "analysis_parameters")
	assert.Contains(t, string(data), "arrival_rates")
}

func TestMinRateAbove(t *testing.T) {
	results := []RateResult{
		{ArrivalRate: 4.0, Utilization: map[string]float64{"decode": 0.85}},
		{ArrivalRate: 1.0, Utilization: map[string]float64{"decode": 0.3}},
		{ArrivalRate: 2.0, Utilization: map[string]float64{"decode": 0.9}},
	}

	got := minRateAbove(results, sim.ModeDisagg, 0.8)
	require.NotNil(t, got)
	assert.Equal(t, 2.0, *got) // lowest qualifying rate, not the first listed

	assert.Nil(t, minRateAbove(results, sim.ModeDisagg, 0.95))
	assert.Nil(t, minRateAbove(nil, sim.ModeDisagg, 0.8))
}

func TestSweepRecommendations(t *testing.T) {
	setups := []SweepSetup{{Name: "a"}, {Name: "b"}}
	threshold := 4.0
	configs := map[string]*SetupResults{
		"a": {Results: []RateResult{{ArrivalRate: 5, MeanTTFT: 0.4}}},
		"b": {
			Results:             []RateResult{{ArrivalRate: 5, MeanTTFT: 0.2}},
			BottleneckThreshold: &threshold,
		},
	}

	recs := sweepRecommendations(setups, []float64{1, 5}, configs)
	require.Len(t, recs, 2)
	assert.Equal(t, "best arrangement at 5.0 req/s: b (0.20s mean TTFT)", recs[0])
	assert.Contains(t, recs[1], "1 of 2 arrangements")
}
