package sim

// Disaggregated splits serving across two independent pools: a prefill unit
// processes the prompt, then the request releases it and queues for a decode
// unit that runs every output token. The handoff itself costs no simulated
// time, but under load the second queue wait lands directly on TTFT.
type Disaggregated struct {
	sched   *Scheduler
	metrics *Metrics
	prefill *Pool
	decode  *Pool

	prefillRate float64 // tokens per second per unit
	decodeRate  float64
}

// NewDisaggregated builds the strategy and its two pools, reported as
// "prefill" and "decode".
func NewDisaggregated(sched *Scheduler, metrics *Metrics, cfg DisaggConfig) *Disaggregated {
	return &Disaggregated{
		sched:       sched,
		metrics:     metrics,
		prefill:     NewPool(sched, PoolPrefill, cfg.PrefillGPUs),
		decode:      NewPool(sched, PoolDecode, cfg.DecodeGPUs),
		prefillRate: cfg.PrefillTokensPerSec,
		decodeRate:  cfg.DecodeTokensPerSec,
	}
}

// Name implements Architecture.
func (d *Disaggregated) Name() string { return ModeDisagg }

// Pools implements Architecture.
func (d *Disaggregated) Pools() []*Pool { return []*Pool{d.prefill, d.decode} }

// Start queues req for a prefill unit at the current instant.
func (d *Disaggregated) Start(req *Request) {
	r := &disaggRequest{arch: d, req: req}
	r.grant = d.prefill.Acquire(r)
}

type disaggPhase int

const (
	disaggPrefillGranted disaggPhase = iota // prefill unit granted
	disaggPrefillDone                       // prompt processed, unit still held
	disaggDecodeGranted                     // decode unit granted
	disaggFirstToken                        // first decode step finished
	disaggFinished                          // remaining decode steps finished
)

// disaggRequest is one request's lifecycle across the two pools. The grant
// field always holds the currently held unit: prefill first, decode after.
type disaggRequest struct {
	arch  *Disaggregated
	req   *Request
	grant *Grant
	phase disaggPhase
}

// Resume advances the request one phase.
func (r *disaggRequest) Resume(now int64) {
	switch r.phase {
	case disaggPrefillGranted:
		r.phase = disaggPrefillDone
		r.arch.sched.ScheduleAfter(serviceTicks(r.req.PromptTokens, r.arch.prefillRate), r)
	case disaggPrefillDone:
		// Free the prefill unit and queue for decode at the same instant.
		r.grant.Release()
		r.phase = disaggDecodeGranted
		r.grant = r.arch.decode.Acquire(r)
	case disaggDecodeGranted:
		r.phase = disaggFirstToken
		r.arch.sched.ScheduleAfter(serviceTicks(1, r.arch.decodeRate), r)
	case disaggFirstToken:
		r.arch.metrics.RecordTTFT(now-r.req.ArrivalTime, now)
		r.phase = disaggFinished
		remaining := r.req.OutputTokens - 1
		r.arch.sched.ScheduleAfter(serviceTicks(remaining, r.arch.decodeRate), r)
	case disaggFinished:
		r.grant.Release()
		r.arch.metrics.MarkCompleted()
	}
}
