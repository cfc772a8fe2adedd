package cmd

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ttft-sim/ttft-sim/sim"
)

var (
	// CLI flags for the compare command
	compareSimSeconds    float64
	compareWarmupSeconds float64
	compareSeed          int64
	compareRate          float64
)

// compareCmd runs both architectures on identical workload settings and
// prints the relative TTFT outcome
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare monolithic and disaggregated TTFT on the same workload",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		base := sim.DefaultConfig()
		base.SimSeconds = compareSimSeconds
		base.WarmupSeconds = compareWarmupSeconds
		base.Seed = compareSeed
		base.Arrival.RatePerSec = compareRate

		results := make(map[string]sim.Result, 2)
		for _, m := range []string{sim.ModeMono, sim.ModeDisagg} {
			cfg := base
			cfg.Mode = m
			s, err := sim.NewSimulator(cfg)
			if err != nil {
				logrus.Fatalf("building %s simulator: %v", m, err)
			}
			results[m] = s.Run()
		}
		mono, disagg := results[sim.ModeMono], results[sim.ModeDisagg]

		printModeResult("Monolithic", mono)
		printModeResult("Disaggregated", disagg)

		fmt.Println("Comparison (disagg vs mono):")
		fmt.Printf("  mean TTFT: %+.1f%%\n", percentDelta(disagg.MeanTTFT, mono.MeanTTFT))
		fmt.Printf("  P50 TTFT:  %+.1f%%\n", percentDelta(disagg.P50TTFT, mono.P50TTFT))
		fmt.Printf("  P90 TTFT:  %+.1f%%\n", percentDelta(disagg.P90TTFT, mono.P90TTFT))
		fmt.Println()
		fmt.Println("Positive values mean disaggregated is slower, the usual outcome of")
		fmt.Println("queueing at both the prefill and decode pools.")
	},
}

func printModeResult(label string, res sim.Result) {
	fmt.Printf("%s results:\n", label)
	fmt.Printf("  samples:    %d\n", res.NumSamples)
	fmt.Printf("  mean TTFT:  %.3fs\n", res.MeanTTFT)
	fmt.Printf("  P50 TTFT:   %.3fs\n", res.P50TTFT)
	fmt.Printf("  P90 TTFT:   %.3fs\n", res.P90TTFT)
	fmt.Printf("  P99 TTFT:   %.3fs\n", res.P99TTFT)
	fmt.Printf("  throughput: %.2f req/s\n", res.ThroughputRPS)
	fmt.Println()
}

// percentDelta is the relative difference in percent; NaN when the
// reference is unusable.
func percentDelta(value, reference float64) float64 {
	if math.IsNaN(value) || math.IsNaN(reference) || reference == 0 {
		return math.NaN()
	}
	return (value - reference) / reference * 100
}

func init() {
	compareCmd.Flags().Float64Var(&compareSimSeconds, "sim-seconds", 300, "Simulation horizon in seconds")
	compareCmd.Flags().Float64Var(&compareWarmupSeconds, "warmup-seconds", 30, "Warmup time in seconds, excluded from statistics")
	compareCmd.Flags().Int64Var(&compareSeed, "seed", 42, "Seed shared by both runs")
	compareCmd.Flags().Float64Var(&compareRate, "rate", 2.0, "Poisson arrival rate, requests per second")

	rootCmd.AddCommand(compareCmd)
}
