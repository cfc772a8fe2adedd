package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ttft-sim/ttft-sim/sim"
	"github.com/ttft-sim/ttft-sim/sim/workload"
)

var (
	// CLI flags for the run command
	configPath    string  // YAML config file, optional
	scenarioName  string  // preset applied over the config
	mode          string  // architecture override: mono or disagg
	rate          float64 // arrival rate override, requests per second
	simSeconds    float64 // horizon override, seconds
	warmupSeconds float64 // warmup override, seconds
	seed          int64   // master RNG seed override
	dumpTTFT      string  // optional path for raw TTFT samples

	logLevel string // log verbosity level, shared by all commands
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ttft-sim",
	Short: "Discrete-event TTFT simulator for monolithic and disaggregated LLM serving",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log flag before a command does any work.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// buildRunConfig resolves the run configuration: YAML file over defaults,
// scenario preset over that, explicit flags last. Flags apply only when
// set, so a preset's arrival rate survives unless --rate is given.
func buildRunConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if scenarioName != "" {
		sc, ok := sim.ScenarioByName(scenarioName)
		if !ok {
			return cfg, fmt.Errorf("unknown scenario %q; valid: %v", scenarioName, sim.ScenarioNames())
		}
		cfg = sc.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("rate") {
		cfg.Arrival.RatePerSec = rate
	}
	if flags.Changed("sim-seconds") {
		cfg.SimSeconds = simSeconds
	}
	if flags.Changed("warmup-seconds") {
		cfg.WarmupSeconds = warmupSeconds
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, nil
}

// runCmd executes one simulation from the resolved configuration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one TTFT simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := buildRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("resolving configuration: %v", err)
		}

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("building simulator: %v", err)
		}
		res := s.Run()

		doc, err := runReport(cfg, res)
		if err != nil {
			logrus.Fatalf("encoding result: %v", err)
		}
		fmt.Println(string(doc))

		if dumpTTFT != "" {
			if err := dumpSamples(dumpTTFT, res.Samples); err != nil {
				logrus.Fatalf("dumping TTFT samples: %v", err)
			}
			logrus.Infof("wrote %d TTFT samples to %s", len(res.Samples), dumpTTFT)
		}
	},
}

// runReport renders the run statistics with the resolved arrival rate and
// token moments appended, so a run is verifiable from its output alone.
func runReport(cfg sim.Config, res sim.Result) ([]byte, error) {
	base, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}
	doc["arrival_rate_per_s"] = cfg.Arrival.RatePerSec
	doc["prompt_tokens_log"], doc["prompt_tokens_real"] = tokenBlocks(cfg.PromptTokens)
	doc["output_tokens_log"], doc["output_tokens_real"] = tokenBlocks(cfg.OutputTokens)
	return json.MarshalIndent(doc, "", "  ")
}

// tokenBlocks returns a spec's distribution parameters and its real-space
// moments.
func tokenBlocks(spec workload.TokenSpec) (params, moments map[string]any) {
	if spec.Dist == "fixed" {
		params = map[string]any{"dist": "fixed", "value": spec.Value}
	} else {
		params = map[string]any{"mu": spec.Mean, "sigma": spec.Sigma, "min_value": spec.Min}
	}
	moments = map[string]any{"mean": spec.RealMean(), "std": spec.RealStdDev()}
	return params, moments
}

// dumpSamples writes the post-warmup TTFT values as a JSON array. An empty
// run produces [], not null.
func dumpSamples(path string, samples []float64) error {
	if samples == nil {
		samples = []float64{}
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML config file path")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "Scenario preset applied over the config")
	runCmd.Flags().StringVar(&mode, "mode", sim.ModeDisagg, "Architecture (mono, disagg)")
	runCmd.Flags().Float64Var(&rate, "rate", 2.0, "Poisson arrival rate, requests per second")
	runCmd.Flags().Float64Var(&simSeconds, "sim-seconds", 600, "Simulation horizon in seconds")
	runCmd.Flags().Float64Var(&warmupSeconds, "warmup-seconds", 60, "Warmup time in seconds, excluded from statistics")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random arrival and token generation")
	runCmd.Flags().StringVar(&dumpTTFT, "dump-ttft", "", "Optional path to dump post-warmup TTFT samples as a JSON array")

	rootCmd.AddCommand(runCmd)
}
