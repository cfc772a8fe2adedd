package sim

import (
	"hash/fnv"
	"math/rand"
)

// RNG stream names. Each concern draws from its own stream so that changing
// how one stream is consumed never perturbs the others.
const (
	StreamArrivals     = "arrivals"
	StreamPromptTokens = "prompt_tokens"
	StreamOutputTokens = "output_tokens"
)

// PartitionedRNG provides deterministic, isolated RNG streams per concern.
//
// Derivation: masterSeed XOR fnv1a64(streamName). Two runs with the same
// seed and configuration MUST produce bit-for-bit identical results.
//
// Not thread-safe; the simulation is single-threaded by design.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:    seed,
		streams: make(map[string]*rand.Rand),
	}
}

// ForStream returns a deterministically-seeded RNG for the named stream.
// The same name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForStream(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.streams[name] = rng
	return rng
}

// Seed returns the master seed this PartitionedRNG was created with.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
