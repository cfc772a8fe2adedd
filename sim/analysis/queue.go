// Package analysis layers closed-form queueing estimates over simulation
// runs: an M/M/c model per pool solved with the llm-inferno birth-death
// engine, an arrival-rate sweep joining measured TTFT with model waits, and
// a scenario study with rate sizing against a TTFT target.
package analysis

import (
	"fmt"
	"math"

	"github.com/llm-inferno/queue-analysis/pkg/queue"
	"github.com/llm-inferno/queue-analysis/pkg/utils"

	"github.com/ttft-sim/ttft-sim/sim"
)

// Epsilon is the relative margin kept from the stability boundary; rates
// within it are treated as unstable.
const Epsilon = float32(0.001)

// StabilitySafetyFraction backs capacity-limited rate recommendations off
// from the exact stability bound.
const StabilitySafetyFraction = float32(0.1)

// occupancyDepth bounds the queued requests of the truncated birth-death
// chain; states beyond capacity+occupancyDepth are cut off.
const occupancyDepth = 4096

// MMc is an M/M/c model of one pool: c units, each completing requests at
// rate 1/serviceSeconds, exponential service, FIFO admission. Expressed as
// a state-dependent M/M/1 whose aggregate service rate at occupancy n is
// min(n, c)/serviceSeconds; past the explicit rates the solver holds the
// last one, which is exactly the M/M/c shape.
type MMc struct {
	servers int
	mu      float64 // per-unit service rate, requests per second
	model   *queue.MM1ModelStateDependent
}

// NewMMc builds the model. Sizing comes from a validated Config, so
// non-positive inputs are programming errors.
func NewMMc(servers int, serviceSeconds float64) *MMc {
	if servers < 1 || serviceSeconds <= 0 {
		panic(fmt.Sprintf("queue model: bad sizing servers=%d service=%fs", servers, serviceSeconds))
	}
	mu := 1 / serviceSeconds
	servRate := make([]float32, servers)
	for n := 1; n <= servers; n++ {
		servRate[n-1] = float32(float64(n) * mu)
	}
	return &MMc{
		servers: servers,
		mu:      mu,
		model:   queue.NewMM1ModelStateDependent(servers+occupancyDepth, servRate),
	}
}

// Servers returns the pool capacity c.
func (m *MMc) Servers() int { return m.servers }

// Capacity returns the aggregate service rate c*mu in requests per second.
func (m *MMc) Capacity() float64 { return float64(m.servers) * m.mu }

// MaxStableRate is the highest arrival rate the model accepts; at and
// beyond it the queue has no steady state.
func (m *MMc) MaxStableRate() float64 { return m.Capacity() * float64(1-Epsilon) }

// QueueEstimate is one closed-form solution of a pool model at a fixed
// arrival rate. Wait and Response are seconds.
type QueueEstimate struct {
	Lambda     float64
	Wait       float64
	Response   float64
	InService  float64
	Throughput float64
	Rho        float64
}

// Estimate solves the model at lambda requests per second. Rates at or
// past MaxStableRate yield +Inf wait and response rather than an error.
func (m *MMc) Estimate(lambda float64) QueueEstimate {
	if lambda <= 0 {
		return QueueEstimate{Lambda: lambda, Response: 1 / m.mu}
	}
	if lambda >= m.MaxStableRate() {
		return QueueEstimate{
			Lambda:     lambda,
			Wait:       math.Inf(1),
			Response:   math.Inf(1),
			InService:  float64(m.servers),
			Throughput: m.Capacity(),
			Rho:        1,
		}
	}
	m.model.Solve(float32(lambda), 1)
	if !m.model.IsValid() {
		return QueueEstimate{Lambda: lambda, Wait: math.Inf(1), Response: math.Inf(1), Rho: 1}
	}
	rho := float64(m.model.GetAvgNumInServers()) / float64(m.servers)
	rho = math.Min(math.Max(rho, 0), 1)
	return QueueEstimate{
		Lambda:     lambda,
		Wait:       float64(m.model.GetAvgWaitTime()),
		Response:   float64(m.model.GetAvgRespTime()),
		InService:  float64(m.model.GetAvgNumInServers()),
		Throughput: float64(m.model.GetThroughput()),
		Rho:        rho,
	}
}

// AvgWait returns the closed-form mean queueing delay in seconds at
// lambda, +Inf when the rate is unstable.
func (m *MMc) AvgWait(lambda float64) float64 { return m.Estimate(lambda).Wait }

// solvedWait skips the stability guard: the truncated chain stays solvable
// right up to the bound, which the sizing search needs.
func (m *MMc) solvedWait(lambda float64) float64 {
	m.model.Solve(float32(lambda), 1)
	if !m.model.IsValid() {
		return math.Inf(1)
	}
	return float64(m.model.GetAvgWaitTime())
}

// ServiceSeconds returns each pool's mean per-request residency in seconds
// under cfg: how long one admitted request holds one unit. Token means are
// the real-space log-normal means, ignoring the integer floor.
func ServiceSeconds(cfg sim.Config) map[string]float64 {
	if cfg.Mode == sim.ModeMono {
		return map[string]float64{
			sim.PoolGPU: cfg.PromptTokens.RealMean()/cfg.Mono.PrefillTokensPerSec +
				cfg.OutputTokens.RealMean()/cfg.Mono.DecodeTokensPerSec,
		}
	}
	return map[string]float64{
		sim.PoolPrefill: cfg.PromptTokens.RealMean() / cfg.Disagg.PrefillTokensPerSec,
		sim.PoolDecode:  cfg.OutputTokens.RealMean() / cfg.Disagg.DecodeTokensPerSec,
	}
}

// PoolModels builds one M/M/c model per pool of cfg's arrangement, keyed
// by pool name, with mean service equal to the pool's residency.
func PoolModels(cfg sim.Config) map[string]*MMc {
	service := ServiceSeconds(cfg)
	if cfg.Mode == sim.ModeMono {
		return map[string]*MMc{
			sim.PoolGPU: NewMMc(cfg.Mono.GPUs, service[sim.PoolGPU]),
		}
	}
	return map[string]*MMc{
		sim.PoolPrefill: NewMMc(cfg.Disagg.PrefillGPUs, service[sim.PoolPrefill]),
		sim.PoolDecode:  NewMMc(cfg.Disagg.DecodeGPUs, service[sim.PoolDecode]),
	}
}

// BottleneckPool names the pool whose saturation gates TTFT: decode in the
// disaggregated pipeline, the shared pool in the monolithic one.
func BottleneckPool(mode string) string {
	if mode == sim.ModeDisagg {
		return sim.PoolDecode
	}
	return sim.PoolGPU
}

// BaseTTFTSeconds is the queue-free mean TTFT under cfg: mean prefill time
// plus one decode step.
func BaseTTFTSeconds(cfg sim.Config) float64 {
	if cfg.Mode == sim.ModeMono {
		return cfg.PromptTokens.RealMean()/cfg.Mono.PrefillTokensPerSec + 1/cfg.Mono.DecodeTokensPerSec
	}
	return cfg.PromptTokens.RealMean()/cfg.Disagg.PrefillTokensPerSec + 1/cfg.Disagg.DecodeTokensPerSec
}

// MeanTTFTEstimate is the closed-form mean TTFT at lambda under cfg: the
// queue-free path plus every stage's solved wait. Values just past the
// stability bound reflect the truncated chain, not a steady state.
func MeanTTFTEstimate(cfg sim.Config, lambda float64) float64 {
	ttft := BaseTTFTSeconds(cfg)
	for _, m := range PoolModels(cfg) {
		ttft += m.solvedWait(lambda)
	}
	return ttft
}

// Sizing state shared with the eval function, set before utils.BinarySearch
// runs. Sizing calls are not safe to run concurrently.
var (
	evalBaseSeconds float64
	evalCompanion   *MMc
)

// evalMeanTTFT is the search objective: closed-form mean TTFT at arrival
// rate x. utils.Model holds the bottleneck pool; the companion stage's
// wait, if any, is added on top.
func evalMeanTTFT(x float32) (float32, error) {
	utils.Model.Solve(x, 1)
	if !utils.Model.IsValid() {
		return 0, fmt.Errorf("invalid model %s", utils.Model)
	}
	ttft := float64(utils.Model.GetAvgWaitTime()) + evalBaseSeconds
	if evalCompanion != nil {
		ttft += evalCompanion.solvedWait(float64(x))
	}
	return float32(ttft), nil
}

// MaxRateForTTFT returns the highest arrival rate whose closed-form mean
// TTFT stays within target seconds under cfg's arrangement, capped at the
// stability bound of the tightest pool.
func MaxRateForTTFT(cfg sim.Config, target float64) (float64, error) {
	base := BaseTTFTSeconds(cfg)
	if target <= base {
		return 0, fmt.Errorf("target TTFT %gs is below the queue-free TTFT %.4gs", target, base)
	}

	models := PoolModels(cfg)
	primary := models[BottleneckPool(cfg.Mode)]
	var companion *MMc
	if cfg.Mode == sim.ModeDisagg {
		companion = models[sim.PoolPrefill]
	}

	lambdaMax := primary.MaxStableRate()
	if companion != nil {
		lambdaMax = math.Min(lambdaMax, companion.MaxStableRate())
	}
	lambdaMin := float64(Epsilon) * primary.mu

	utils.Model = primary.model
	evalBaseSeconds = base
	evalCompanion = companion

	atMax, err := evalMeanTTFT(float32(lambdaMax))
	if err != nil {
		return 0, fmt.Errorf("sizing max rate for %gs TTFT: %w", target, err)
	}
	if float64(atMax) <= target {
		// The target does not bind; stability caps the rate.
		return lambdaMax, nil
	}

	rate, ind, err := utils.BinarySearch(float32(lambdaMin), float32(lambdaMax), float32(target), evalMeanTTFT)
	if ind < 0 {
		err = fmt.Errorf("target is below the bounded region")
	}
	if err != nil {
		return 0, fmt.Errorf("sizing max rate for %gs TTFT: %w", target, err)
	}
	return float64(rate), nil
}
