package stack

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration MUST
// produce bit-for-bit identical sample vectors.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// partStream returns the stream label for the part at slot i of a path.
// The slot index keeps streams distinct even when two parts share a name.
func partStream(slot int, name string) string {
	return fmt.Sprintf("part_%d_%s", slot, name)
}

// PartitionedRNG hands out deterministic, isolated RNG streams by label.
//
// Stream seeds derive as PCG(masterSeed, fnv1a64(label)), so draws on one
// stream never perturb another and the order in which parts are realized
// does not change their samples.
//
// Thread-safety: NOT thread-safe. Obtain streams serially, then use each
// stream from a single goroutine.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForStream returns a deterministically-seeded RNG for the named stream.
// The same label always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForStream(label string) *rand.Rand {
	if rng, ok := p.streams[label]; ok {
		return rng
	}
	rng := rand.New(rand.NewPCG(uint64(p.key), fnv1a64(label)))
	p.streams[label] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
