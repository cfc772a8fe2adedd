package sim

import (
	"github.com/ttft-sim/ttft-sim/sim/workload"
)

// Scenario is a named preset applied over a base configuration. The battery
// shares one token mix and stresses a single axis per preset: offered load,
// pool sizing, service rates, or length variance.
type Scenario struct {
	Name        string
	Description string
	apply       func(*Config)
}

// Apply returns base with the scenario's overrides applied. Fields the
// scenario does not touch keep their base values, so seed and horizon flags
// still compose with a preset.
func (s Scenario) Apply(base Config) Config {
	s.apply(&base)
	return base
}

// batteryTokens is the shared token mix: moderate prompts, longer outputs.
func batteryTokens(cfg *Config) {
	cfg.PromptTokens = workload.TokenSpec{Mean: 6.0, Sigma: 0.8, Min: 8}
	cfg.OutputTokens = workload.TokenSpec{Mean: 5.0, Sigma: 1.0, Min: 16}
}

func standardDisagg(cfg *Config) {
	cfg.Mode = ModeDisagg
	cfg.Disagg = DisaggConfig{PrefillGPUs: 2, DecodeGPUs: 2, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000}
}

var scenarios = []Scenario{
	{
		Name:        "low_load",
		Description: "disagg at 0.5 req/s, baseline TTFT with near-empty queues",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			batteryTokens(cfg)
			cfg.Arrival.RatePerSec = 0.5
		},
	},
	{
		Name:        "medium_load",
		Description: "disagg at 2 req/s, moderate queueing",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			batteryTokens(cfg)
			cfg.Arrival.RatePerSec = 2.0
		},
	},
	{
		Name:        "high_load",
		Description: "disagg at 4 req/s, pronounced queueing",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			batteryTokens(cfg)
			cfg.Arrival.RatePerSec = 4.0
		},
	},
	{
		Name:        "slow_prefill",
		Description: "one prefill GPU at 4000 tok/s with longer prompts, prefill queue dominates",
		apply: func(cfg *Config) {
			cfg.Mode = ModeDisagg
			cfg.Arrival.RatePerSec = 2.0
			cfg.PromptTokens = workload.TokenSpec{Mean: 6.5, Sigma: 0.9, Min: 8}
			cfg.OutputTokens = workload.TokenSpec{Mean: 5.0, Sigma: 1.0, Min: 16}
			cfg.Disagg = DisaggConfig{PrefillGPUs: 1, DecodeGPUs: 2, PrefillTokensPerSec: 4000, DecodeTokensPerSec: 2000}
		},
	},
	{
		Name:        "slow_decode",
		Description: "one decode GPU at 1000 tok/s with longer outputs, decode queue dominates",
		apply: func(cfg *Config) {
			cfg.Mode = ModeDisagg
			cfg.Arrival.RatePerSec = 2.0
			cfg.PromptTokens = workload.TokenSpec{Mean: 6.0, Sigma: 0.8, Min: 8}
			cfg.OutputTokens = workload.TokenSpec{Mean: 6.0, Sigma: 1.1, Min: 16}
			cfg.Disagg = DisaggConfig{PrefillGPUs: 2, DecodeGPUs: 1, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 1000}
		},
	},
	{
		Name:        "balanced",
		Description: "both pools at 4000 tok/s, equal prefill and decode service times",
		apply: func(cfg *Config) {
			cfg.Mode = ModeDisagg
			cfg.Arrival.RatePerSec = 2.0
			batteryTokens(cfg)
			cfg.Disagg = DisaggConfig{PrefillGPUs: 2, DecodeGPUs: 2, PrefillTokensPerSec: 4000, DecodeTokensPerSec: 4000}
		},
	},
	{
		Name:        "monolithic",
		Description: "mono with 4 shared GPUs at 2 req/s, comparison point for the disagg battery",
		apply: func(cfg *Config) {
			cfg.Mode = ModeMono
			cfg.Arrival.RatePerSec = 2.0
			batteryTokens(cfg)
			cfg.Mono = MonoConfig{GPUs: 4, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000}
		},
	},
	{
		Name:        "saturation",
		Description: "disagg at 6 req/s, offered decode work exceeds pool throughput",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			batteryTokens(cfg)
			cfg.Arrival.RatePerSec = 6.0
		},
	},
	{
		Name:        "variable",
		Description: "disagg at 3 req/s with sigma 1.2 on both lengths, burst-heavy tails",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			cfg.Arrival.RatePerSec = 3.0
			cfg.PromptTokens = workload.TokenSpec{Mean: 6.0, Sigma: 1.2, Min: 8}
			cfg.OutputTokens = workload.TokenSpec{Mean: 5.0, Sigma: 1.2, Min: 16}
		},
	},
	{
		Name:        "light_disagg",
		Description: "disagg at 1 req/s, quick smoke configuration",
		apply: func(cfg *Config) {
			standardDisagg(cfg)
			batteryTokens(cfg)
			cfg.Arrival.RatePerSec = 1.0
		},
	},
	{
		Name:        "heavy_mono",
		Description: "mono at 4 req/s with larger prompts and outputs",
		apply: func(cfg *Config) {
			cfg.Mode = ModeMono
			cfg.Arrival.RatePerSec = 4.0
			cfg.PromptTokens = workload.TokenSpec{Mean: 6.5, Sigma: 0.9, Min: 8}
			cfg.OutputTokens = workload.TokenSpec{Mean: 6.5, Sigma: 1.1, Min: 16}
			cfg.Mono = MonoConfig{GPUs: 4, PrefillTokensPerSec: 8000, DecodeTokensPerSec: 2000}
		},
	},
}

// Scenarios returns the preset battery in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// ScenarioByName finds a preset by name.
func ScenarioByName(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenarioNames returns the preset names in display order.
func ScenarioNames() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}
