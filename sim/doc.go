// Package sim provides the discrete-event simulation core for TTFT studies
// of LLM serving clusters.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - scheduler.go: the simulated clock, the event queue, and the Process
//     contract everything else is written against
//   - pool.go: fixed-capacity GPU pools with FIFO admission and busy-time
//     accounting
//   - simulator.go: one run wired end to end, from validated Config to
//     Result
//
// # Architecture
//
// A run is a set of cooperating processes over one Scheduler: an arrival
// generator emits requests open-loop, and each request advances through the
// phases its serving strategy defines. Two strategies implement the
// Architecture interface:
//   - monolithic.go: one shared pool; a GPU is held from prefill through the
//     last decode step
//   - disaggregated.go: separate prefill and decode pools with an
//     instantaneous handoff between them
//
// Stochastic inputs (inter-arrival gaps, token counts) live in
// sim/workload/ and draw from per-concern RNG streams derived from the run
// seed, so a run is reproducible bit for bit. Closed-form M/M/c queue
// estimates and rate sweeps live in sim/analysis/.
//
// Time is int64 ticks at one microsecond per tick; seconds appear only at
// the configuration and reporting boundaries.
package sim
