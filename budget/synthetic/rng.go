package synthetic

import (
	"hash/fnv"
	"math/rand"
)

// RNG subsystem names. Each collaborator draws from its own stream so adding
// draws in one never shifts the sequence seen by another.
const (
	SubsystemData       = "data"
	SubsystemTrainer    = "trainer"
	SubsystemEvaluator  = "evaluator"
	SubsystemPredictor  = "predictor"
	SubsystemStepTiming = "step_timing"
)

// PartitionedRNG hands out one seeded stream per subsystem, derived as
// seed XOR fnv1a64(name). Not safe for concurrent use.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the seed the streams derive from.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
