package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ttft-sim/ttft-sim/sim"
	"github.com/ttft-sim/ttft-sim/sim/analysis"
)

var (
	// CLI flags for the queue-study command
	studyScenario      string
	studyComprehensive bool
	studyLoadSweep     bool
	studyRates         []float64
	studySimSeconds    float64
	studyWarmupSeconds float64
	studyTargetTTFT    float64
	studyOut           string
)

// queueStudyCmd runs scenario presets and joins measured TTFT with the
// closed-form queueing estimates
var queueStudyCmd = &cobra.Command{
	Use:   "queue-study",
	Short: "Study queueing impact on TTFT across scenario presets",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if studyComprehensive && studyScenario != "" {
			logrus.Fatalf("--comprehensive and --scenario are mutually exclusive")
		}
		if !studyComprehensive && studyScenario == "" {
			logrus.Fatalf("need --comprehensive or --scenario")
		}

		st := &analysis.Study{SimSeconds: studySimSeconds, WarmupSeconds: studyWarmupSeconds}

		var (
			sc      sim.Scenario
			results []analysis.ScenarioResult
			err     error
		)
		if studyComprehensive {
			results, err = st.RunAll()
		} else {
			var ok bool
			sc, ok = sim.ScenarioByName(studyScenario)
			if !ok {
				logrus.Fatalf("unknown scenario %q; valid: %v", studyScenario, sim.ScenarioNames())
			}
			if studyLoadSweep {
				results, err = st.LoadSweep(sc, studyRates)
			} else {
				var r analysis.ScenarioResult
				r, err = st.RunScenario(sc)
				results = []analysis.ScenarioResult{r}
			}
		}
		if err != nil {
			logrus.Fatalf("running study: %v", err)
		}

		report := st.Report(results)
		if studyTargetTTFT > 0 {
			if studyComprehensive {
				logrus.Fatalf("--target-ttft needs --scenario")
			}
			sizing, err := st.SizeForTTFT(sc, studyTargetTTFT)
			if err != nil {
				logrus.Fatalf("sizing: %v", err)
			}
			report.Sizing = sizing
		}

		if studyOut != "" {
			if err := report.Write(studyOut); err != nil {
				logrus.Fatalf("writing report: %v", err)
			}
			logrus.Infof("study report written to %s", studyOut)
			return
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logrus.Fatalf("encoding report: %v", err)
		}
		fmt.Println(string(data))
	},
}

func init() {
	queueStudyCmd.Flags().BoolVar(&studyComprehensive, "comprehensive", false, "Run the whole scenario battery")
	queueStudyCmd.Flags().StringVar(&studyScenario, "scenario", "", "Run one scenario preset")
	queueStudyCmd.Flags().BoolVar(&studyLoadSweep, "load-sweep", false, "Rerun the scenario across --rates")
	queueStudyCmd.Flags().Float64SliceVar(&studyRates, "rates", []float64{0.5, 1, 2, 3, 4, 5}, "Arrival rates for --load-sweep")
	queueStudyCmd.Flags().Float64Var(&studySimSeconds, "sim-seconds", 600, "Simulation horizon in seconds")
	queueStudyCmd.Flags().Float64Var(&studyWarmupSeconds, "warmup-seconds", 60, "Warmup time in seconds, excluded from statistics")
	queueStudyCmd.Flags().Float64Var(&studyTargetTTFT, "target-ttft", 0, "Mean TTFT target in seconds for rate sizing")
	queueStudyCmd.Flags().StringVar(&studyOut, "out", "", "Report file; empty prints to stdout")

	rootCmd.AddCommand(queueStudyCmd)
}
