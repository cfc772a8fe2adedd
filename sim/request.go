// Defines the Request struct that models an individual inference request in
// the simulation.

package sim

import (
	"fmt"
)

// Request is an immutable description of one unit of work: when it arrived
// and how many tokens it carries. Each request is owned by exactly one
// strategy process from arrival to completion; all mutable lifecycle state
// lives in that process, not here.
type Request struct {
	ID           int64 // sequential, assigned in arrival order
	ArrivalTime  int64 // ticks
	PromptTokens int   // input length, >= 1
	OutputTokens int   // pre-specified output length, >= 1
}

// String returns a human-readable representation for debug logs.
func (r *Request) String() string {
	return fmt.Sprintf("request %d (arrival=%d, prompt=%d, output=%d)",
		r.ID, r.ArrivalTime, r.PromptTokens, r.OutputTokens)
}
