package sim

// Monolithic serves each request on a single GPU held end to end: the unit
// that runs prefill also runs every decode step, and frees only after the
// last output token. Requests compete for one shared pool, so TTFT absorbs
// at most one queue wait.
type Monolithic struct {
	sched   *Scheduler
	metrics *Metrics
	gpus    *Pool

	prefillRate float64 // tokens per second per unit
	decodeRate  float64
}

// NewMonolithic builds the strategy and its shared pool, reported as "gpu".
func NewMonolithic(sched *Scheduler, metrics *Metrics, cfg MonoConfig) *Monolithic {
	return &Monolithic{
		sched:       sched,
		metrics:     metrics,
		gpus:        NewPool(sched, PoolGPU, cfg.GPUs),
		prefillRate: cfg.PrefillTokensPerSec,
		decodeRate:  cfg.DecodeTokensPerSec,
	}
}

// Name implements Architecture.
func (m *Monolithic) Name() string { return ModeMono }

// Pools implements Architecture.
func (m *Monolithic) Pools() []*Pool { return []*Pool{m.gpus} }

// Start queues req for the shared pool at the current instant.
func (m *Monolithic) Start(req *Request) {
	r := &monoRequest{arch: m, req: req}
	r.grant = m.gpus.Acquire(r)
}

type monoPhase int

const (
	monoGranted    monoPhase = iota // GPU granted, prefill about to run
	monoFirstToken                  // prefill plus first decode step finished
	monoFinished                    // remaining decode steps finished
)

// monoRequest is one request's lifecycle on the shared pool. Each Resume
// call lands at the end of the phase scheduled by the previous one.
type monoRequest struct {
	arch  *Monolithic
	req   *Request
	grant *Grant
	phase monoPhase
}

// Resume advances the request one phase.
func (r *monoRequest) Resume(now int64) {
	switch r.phase {
	case monoGranted:
		// Run prefill and the first decode step without yielding the unit.
		r.phase = monoFirstToken
		delay := serviceTicks(r.req.PromptTokens, r.arch.prefillRate) +
			serviceTicks(1, r.arch.decodeRate)
		r.arch.sched.ScheduleAfter(delay, r)
	case monoFirstToken:
		r.arch.metrics.RecordTTFT(now-r.req.ArrivalTime, now)
		r.phase = monoFinished
		remaining := r.req.OutputTokens - 1
		r.arch.sched.ScheduleAfter(serviceTicks(remaining, r.arch.decodeRate), r)
	case monoFinished:
		r.grant.Release()
		r.arch.metrics.MarkCompleted()
	}
}
