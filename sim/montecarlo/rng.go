// Package montecarlo runs a scenario repeatedly under randomized parameter
// draws and aggregates the resulting metric trajectories into summary
// statistics.
package montecarlo

import "hash/fnv"

// SimulationKey uniquely identifies a reproducible Monte Carlo batch.
// Two batches with the same SimulationKey, parameter distributions, and
// iteration count MUST produce bit-for-bit identical aggregated results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Mulberry32 is a small, fast, fully deterministic 32-bit PRNG. It is the
// numeric core every Monte Carlo draw goes through: given the same 32-bit
// seed it produces the same float64 sequence on any platform, which is
// what makes a SimulationKey reproducible.
//
//	s  = (s + 0x6d2b79f5) mod 2^32
//	t  = (s ^ (s>>15)) * (s | 1)             mod 2^32
//	t ^= t + ((t ^ (t>>7)) * (t | 61))       mod 2^32
//	out = ((t ^ (t>>14)) mod 2^32) / 2^32
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Float64 returns the next draw in [0, 1). Multiplications are performed on
// uint32 operands so overflow wraps exactly as the mod-2^32 arithmetic the
// algorithm specifies.
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6d2b79f5
	s := m.state
	t := (s ^ (s >> 15)) * (s | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// PartitionedRNG hands out one isolated Mulberry32 stream per Monte Carlo
// parameter, all deterministically derived from a single SimulationKey.
//
// Derivation formula: masterSeed XOR fnv1a32(parameterName). Isolating each
// parameter's stream behind its own derived seed means adding, removing, or
// reordering an unrelated parameter never perturbs another parameter's draw
// sequence — only that parameter's own name and the master seed matter.
//
// Thread-safety: NOT thread-safe; each stream caches its *Mulberry32
// instance on first use, so callers fanning iterations across goroutines
// must derive one PartitionedRNG (or individual streams) per goroutine.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*Mulberry32
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*Mulberry32)}
}

// ForParameter returns the (cached) stream for the named parameter.
func (p *PartitionedRNG) ForParameter(name string) *Mulberry32 {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	rng := NewMulberry32(uint32(p.key) ^ fnv1a32(name))
	p.streams[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a32 computes a 32-bit FNV-1a hash of s.
func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
