package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ttft-sim/ttft-sim/sim/workload"
)

// Run modes.
const (
	ModeMono   = "mono"
	ModeDisagg = "disagg"
)

var validModes = map[string]bool{
	ModeMono: true, ModeDisagg: true,
}

// ArrivalConfig groups arrival process parameters.
type ArrivalConfig struct {
	RatePerSec float64 `yaml:"rate_per_s"` // Poisson arrival rate, requests per second
}

// MonoConfig sizes the single shared pool of the monolithic architecture.
type MonoConfig struct {
	GPUs                int     `yaml:"gpus"`                 // pool capacity
	PrefillTokensPerSec float64 `yaml:"prefill_tokens_per_s"` // per-unit prefill rate
	DecodeTokensPerSec  float64 `yaml:"decode_tokens_per_s"`  // per-unit decode rate
}

// DisaggConfig sizes the independent prefill and decode pools of the
// disaggregated architecture.
type DisaggConfig struct {
	PrefillGPUs         int     `yaml:"prefill_gpus"`
	DecodeGPUs          int     `yaml:"decode_gpus"`
	PrefillTokensPerSec float64 `yaml:"prefill_tokens_per_s"`
	DecodeTokensPerSec  float64 `yaml:"decode_tokens_per_s"`
}

// Config is the complete description of one simulation run. Validated
// before the run starts and passed immutably into the core.
type Config struct {
	Mode          string  `yaml:"mode"`           // "mono" or "disagg"
	SimSeconds    float64 `yaml:"sim_seconds"`    // run horizon
	WarmupSeconds float64 `yaml:"warmup_seconds"` // statistics cutoff
	Seed          int64   `yaml:"seed"`           // master RNG seed

	Arrival      ArrivalConfig      `yaml:"arrival"`
	PromptTokens workload.TokenSpec `yaml:"prompt_tokens"`
	OutputTokens workload.TokenSpec `yaml:"output_tokens"`

	Mono   MonoConfig   `yaml:"mono"`
	Disagg DisaggConfig `yaml:"disagg"`
}

// DefaultConfig returns the reference configuration: disaggregated 2+2 GPUs
// at 8000/2000 tok/s, 2 req/s, 600 s horizon with 60 s warmup, seed 42.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeDisagg,
		SimSeconds:    600,
		WarmupSeconds: 60,
		Seed:          42,
		Arrival:       ArrivalConfig{RatePerSec: 2.0},
		PromptTokens:  workload.TokenSpec{Mean: 6.0, Sigma: 1.0, Min: 1},
		OutputTokens:  workload.TokenSpec{Mean: 6.0, Sigma: 1.0, Min: 1},
		Mono:          MonoConfig{GPUs: 4, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000},
		Disagg:        DisaggConfig{PrefillGPUs: 2, DecodeGPUs: 2, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000},
	}
}

// LoadConfig reads a YAML run configuration over the defaults: absent
// fields keep their default values. Uses strict parsing: unrecognized keys
// (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field and returns the first problem found. A run
// never starts on an invalid config, and nothing is discovered mid-run.
func (c *Config) Validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("unknown mode %q; valid: mono, disagg", c.Mode)
	}
	if err := validateFinitePositive("sim_seconds", c.SimSeconds); err != nil {
		return err
	}
	if math.IsNaN(c.WarmupSeconds) || math.IsInf(c.WarmupSeconds, 0) || c.WarmupSeconds < 0 {
		return fmt.Errorf("warmup_seconds must be finite and non-negative, got %f", c.WarmupSeconds)
	}
	if err := validateFinitePositive("arrival.rate_per_s", c.Arrival.RatePerSec); err != nil {
		return err
	}
	if err := c.PromptTokens.Validate("prompt_tokens"); err != nil {
		return err
	}
	if err := c.OutputTokens.Validate("output_tokens"); err != nil {
		return err
	}
	if c.Mono.GPUs < 1 {
		return fmt.Errorf("mono.gpus must be >= 1, got %d", c.Mono.GPUs)
	}
	if err := validateFinitePositive("mono.prefill_tokens_per_s", c.Mono.PrefillTokensPerSec); err != nil {
		return err
	}
	if err := validateFinitePositive("mono.decode_tokens_per_s", c.Mono.DecodeTokensPerSec); err != nil {
		return err
	}
	if c.Disagg.PrefillGPUs < 1 {
		return fmt.Errorf("disagg.prefill_gpus must be >= 1, got %d", c.Disagg.PrefillGPUs)
	}
	if c.Disagg.DecodeGPUs < 1 {
		return fmt.Errorf("disagg.decode_gpus must be >= 1, got %d", c.Disagg.DecodeGPUs)
	}
	if err := validateFinitePositive("disagg.prefill_tokens_per_s", c.Disagg.PrefillTokensPerSec); err != nil {
		return err
	}
	if err := validateFinitePositive("disagg.decode_tokens_per_s", c.Disagg.DecodeTokensPerSec); err != nil {
		return err
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
