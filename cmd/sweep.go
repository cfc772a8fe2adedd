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
	// CLI flags for the sweep command
	sweepRates   []float64
	sweepModes   []string
	sweepConfigs []string
	sweepOut     string
)

// sweepCmd sweeps arrival rates across cluster arrangements and reports
// thresholds and recommendations
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep arrival rates across reference cluster arrangements",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		setups, err := selectSetups(sweepModes, sweepConfigs)
		if err != nil {
			logrus.Fatalf("selecting arrangements: %v", err)
		}

		report, err := analysis.RunSweep(setups, sweepRates)
		if err != nil {
			logrus.Fatalf("running sweep: %v", err)
		}

		if sweepOut != "" {
			if err := report.Write(sweepOut); err != nil {
				logrus.Fatalf("writing report: %v", err)
			}
			logrus.Infof("sweep report written to %s", sweepOut)
			return
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logrus.Fatalf("encoding report: %v", err)
		}
		fmt.Println(string(data))
	},
}

// selectSetups resolves the swept arrangements: named ones when given,
// otherwise every arrangement of the requested modes.
func selectSetups(modes, names []string) ([]analysis.SweepSetup, error) {
	if len(names) > 0 {
		setups := make([]analysis.SweepSetup, 0, len(names))
		for _, name := range names {
			s, ok := analysis.SetupByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown arrangement %q; valid: %v", name, analysis.SetupNames())
			}
			setups = append(setups, s)
		}
		return setups, nil
	}

	var setups []analysis.SweepSetup
	for _, m := range modes {
		switch m {
		case sim.ModeDisagg:
			setups = append(setups, analysis.DisaggSweepSetups()...)
		case sim.ModeMono:
			setups = append(setups, analysis.MonoSweepSetup())
		default:
			return nil, fmt.Errorf("unknown mode %q; valid: mono, disagg", m)
		}
	}
	return setups, nil
}

func init() {
	sweepCmd.Flags().Float64SliceVar(&sweepRates, "rates", nil, "Comma-separated arrival rates; empty uses the default ladder")
	sweepCmd.Flags().StringSliceVar(&sweepModes, "modes", []string{sim.ModeDisagg}, "Architectures to sweep (mono, disagg)")
	sweepCmd.Flags().StringSliceVar(&sweepConfigs, "configs", nil, "Named arrangements to sweep, overriding --modes")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Report file; empty prints to stdout")

	rootCmd.AddCommand(sweepCmd)
}
