package sim

import (
	"math/rand"

	"github.com/ttft-sim/ttft-sim/sim/workload"
)

// arrivalGenerator emits the open-loop request stream. Each Resume creates
// one request, hands it to the architecture, and reschedules itself after
// the next sampled gap. Emission never reacts to pool congestion: the
// offered load stays at the configured rate even while queues grow.
type arrivalGenerator struct {
	sched   *Scheduler
	arch    Architecture
	metrics *Metrics

	gaps   workload.ArrivalSampler
	prompt workload.TokenSampler
	output workload.TokenSampler

	arrivalRNG *rand.Rand
	promptRNG  *rand.Rand
	outputRNG  *rand.Rand

	nextID int64
}

// start schedules the first arrival one sampled gap after the current
// instant.
func (g *arrivalGenerator) start() {
	g.sched.ScheduleAfter(g.gaps.SampleGap(g.arrivalRNG), g)
}

// Resume emits one request and schedules the next arrival.
func (g *arrivalGenerator) Resume(now int64) {
	g.nextID++
	req := &Request{
		ID:           g.nextID,
		ArrivalTime:  now,
		PromptTokens: g.prompt.Sample(g.promptRNG),
		OutputTokens: g.output.Sample(g.outputRNG),
	}
	g.metrics.MarkGenerated()
	g.arch.Start(req)
	g.sched.ScheduleAfter(g.gaps.SampleGap(g.arrivalRNG), g)
}
