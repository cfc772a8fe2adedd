package sim

// TicksPerSecond defines the simulated time resolution: one tick is one
// microsecond. User-facing seconds are converted at the configuration and
// reporting boundaries only.
const TicksPerSecond int64 = 1_000_000

// SecondsToTicks converts seconds to ticks, truncating sub-tick remainders.
func SecondsToTicks(s float64) int64 {
	return int64(s * float64(TicksPerSecond))
}

// TicksToSeconds converts ticks to seconds.
func TicksToSeconds(t int64) float64 {
	return float64(t) / float64(TicksPerSecond)
}

// serviceTicks returns the time to process tokens at tokensPerSec, in ticks.
func serviceTicks(tokens int, tokensPerSec float64) int64 {
	return int64(float64(tokens) / tokensPerSec * float64(TicksPerSecond))
}
