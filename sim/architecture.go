package sim

import (
	"github.com/sirupsen/logrus"
)

// Pool reporting names.
const (
	PoolGPU     = "gpu"
	PoolPrefill = "prefill"
	PoolDecode  = "decode"
)

// Architecture defines the interface for serving strategies. A strategy
// decides which pools a request passes through and at which instant its
// first token emerges; the scheduler and metrics are shared with it at
// construction.
type Architecture interface {
	// Name identifies the strategy in run results ("mono" or "disagg").
	Name() string

	// Start begins a request's lifecycle at the current instant. It never
	// blocks: the request process suspends inside pool queues and timeouts.
	Start(req *Request)

	// Pools returns the strategy's pools in report order.
	Pools() []*Pool
}

// NewArchitecture creates the serving strategy selected by cfg.Mode. The
// config has been validated, so an unknown mode here is a programming error.
func NewArchitecture(cfg Config, sched *Scheduler, metrics *Metrics) Architecture {
	switch cfg.Mode {
	case ModeMono:
		return NewMonolithic(sched, metrics, cfg.Mono)
	case ModeDisagg:
		return NewDisaggregated(sched, metrics, cfg.Disagg)
	default:
		logrus.Panicf("unknown mode: %s", cfg.Mode)
		return nil
	}
}
