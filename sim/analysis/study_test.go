package analysis

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttft-sim/ttft-sim/sim"
)

func TestStudy_DefaultHorizon(t *testing.T) {
	st := &Study{}
	report := st.Report(nil)
	assert.Equal(t, 600.0, report.Params.SimSeconds)
	assert.Equal(t, 60.0, report.Params.WarmupSeconds)
	assert.Equal(t, 0, report.Params.TotalScenarios)
}

func TestStudy_RunScenarioJoinsEstimates(t *testing.T) {
	st := &Study{SimSeconds: 60, WarmupSeconds: 6}
	sc, ok := sim.ScenarioByName("low_load")
	require.True(t, ok)

	r, err := st.RunScenario(sc)
	require.NoError(t, err)

	assert.Equal(t, "low_load", r.Name)
	assert.Equal(t, sim.ModeDisagg, r.Mode)
	assert.Equal(t, 0.5, r.ArrivalRate)
	assert.Contains(t, r.Utilization, sim.PoolPrefill)
	assert.Contains(t, r.QueueWait, sim.PoolDecode)
	assert.Contains(t, r.ServiceTime, sim.PoolPrefill)

	// Near-empty queues: TTFT sits close to the ~70ms prefill time
	assert.Greater(t, float64(r.TTFT.Mean), 0.03)
	assert.Less(t, float64(r.TTFT.Mean), 0.5)
	assert.Greater(t, r.ThroughputRPS, 0.0)
}

func TestStudy_RunScenarioAtRateOverridesLoad(t *testing.T) {
	st := &Study{SimSeconds: 60, WarmupSeconds: 6}
	sc, ok := sim.ScenarioByName("medium_load")
	require.True(t, ok)

	r, err := st.RunScenarioAtRate(sc, 0.25)
	require.NoError(t, err)
	assert.Equal(t, "medium_load", r.Name)
	assert.Equal(t, 0.25, r.ArrivalRate)
}

func TestStudy_LoadSweepProducesOnePointPerRate(t *testing.T) {
	st := &Study{SimSeconds: 30, WarmupSeconds: 3}
	sc, ok := sim.ScenarioByName("light_disagg")
	require.True(t, ok)

	rates := []float64{0.5, 1.0, 2.0}
	results, err := st.LoadSweep(sc, rates)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, rates[i], r.ArrivalRate)
		assert.Equal(t, "light_disagg", r.Name)
	}
}

func TestStudy_RunAllCoversBattery(t *testing.T) {
	st := &Study{SimSeconds: 20, WarmupSeconds: 2}
	results, err := st.RunAll()
	require.NoError(t, err)
	require.Len(t, results, len(sim.Scenarios()))

	report := st.Report(results)
	assert.Equal(t, len(results), report.Params.TotalScenarios)
	assert.Equal(t, 20.0, report.Params.SimSeconds)
	assert.False(t, math.IsNaN(float64(report.Summary.MeanTTFTMin)))
	assert.LessOrEqual(t, float64(report.Summary.MeanTTFTMin), float64(report.Summary.MeanTTFTMax))
}

func TestSummarize_WatermarksAndSpread(t *testing.T) {
	results := []ScenarioResult{
		{Name: "cold", TTFT: TTFTMetrics{Mean: 0.1}},
		{Name: "warm", TTFT: TTFTMetrics{Mean: 0.7}},
		{Name: "hot", TTFT: TTFTMetrics{Mean: 3.0}},
		{Name: "empty", TTFT: TTFTMetrics{Mean: Stat(math.NaN())}},
	}

	s := summarize(results)
	assert.Equal(t, 1, s.HighQueueing)
	assert.Equal(t, 1, s.LowQueueing)
	assert.InDelta(t, 0.1, float64(s.MeanTTFTMin), 1e-12)
	assert.InDelta(t, 3.0, float64(s.MeanTTFTMax), 1e-12)
	// population variance of {0.1, 0.7, 3.0}
	assert.InDelta(t, 1.5622, float64(s.MeanTTFTVar), 1e-3)
}

func TestSummarize_AllNaN(t *testing.T) {
	results := []ScenarioResult{
		{Name: "a", TTFT: TTFTMetrics{Mean: Stat(math.NaN())}},
	}
	s := summarize(results)
	assert.True(t, math.IsNaN(float64(s.MeanTTFTMin)))
	assert.True(t, math.IsNaN(float64(s.MeanTTFTVar)))
	assert.Zero(t, s.HighQueueing)
	assert.Zero(t, s.LowQueueing)
}

func TestStudyInsights_Rules(t *testing.T) {
	results := []ScenarioResult{
		{
			Name:        "quiet",
			TTFT:        TTFTMetrics{Mean: 0.2},
			Utilization: map[string]float64{"prefill": 0.2, "decode": 0.3},
		},
		{
			Name:        "slammed",
			TTFT:        TTFTMetrics{Mean: 2.5},
			Utilization: map[string]float64{"prefill": 0.4, "decode": 0.95},
		},
		{
			Name:        "packed_mono",
			TTFT:        TTFTMetrics{Mean: 0.8},
			Utilization: map[string]float64{"gpu": 0.93},
		},
	}

	insights := studyInsights(results)
	require.Len(t, insights, 3)
	assert.Contains(t, insights, "high queueing impact in slammed: 2.50s mean TTFT")
	assert.Contains(t, insights, "decode bottleneck in slammed: 0.95 utilization")
	assert.Contains(t, insights, "gpu bottleneck in packed_mono: 0.93 utilization")
}

func TestStudy_SizeForTTFT(t *testing.T) {
	st := &Study{}
	sc, ok := sim.ScenarioByName("medium_load")
	require.True(t, ok)

	res, err := st.SizeForTTFT(sc, 0.5)
	require.NoError(t, err)

	assert.Equal(t, "medium_load", res.Scenario)
	assert.Equal(t, 0.5, res.TargetTTFT)
	assert.Greater(t, res.MaxRate, 0.0)
	// The decode pool caps medium_load at ~16.3 req/s before the margin
	assert.Less(t, res.MaxRate, 16.4)
	assert.InDelta(t, 14.7, res.MaxStableRate, 0.1)
	assert.InEpsilon(t, 0.5, float64(res.AchievedTTFT), 0.15)
}

func TestStudy_SizeForTTFT_TargetTooTight(t *testing.T) {
	st := &Study{}
	sc, ok := sim.ScenarioByName("medium_load")
	require.True(t, ok)

	_, err := st.SizeForTTFT(sc, 0.01)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medium_load")
	assert.Contains(t, err.Error(), "below the queue-free")
}

func TestStudyReport_WriteAndShape(t *testing.T) {
	st := &Study{SimSeconds: 30, WarmupSeconds: 3}
	sc, ok := sim.ScenarioByName("low_load")
	require.True(t, ok)
	r, err := st.RunScenario(sc)
	require.NoError(t, err)

	report := st.Report([]ScenarioResult{r})
	path := filepath.Join(t.TempDir(), "study.json")
	require.NoError(t, report.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{
		"study_parameters", "scenarios", "summary_statistics",
		"ttft_metrics", "queue_wait_s",
	} {
		assert.Contains(t, string(data), key)
	}
	assert.NotContains(t, string(data), "sizing")
}
