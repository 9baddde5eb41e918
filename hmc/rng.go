package hmc

import "math/rand/v2"

// defaultSeed is used when callers pass seed==0.
const defaultSeed uint64 = 1

// sourceFromSeed returns the engine's single random source.
// Policy: seed==0 ⇒ defaultSeed; otherwise the seed is used verbatim as the
// PCG state and DeriveSeed(seed, 0) as its increment.
func sourceFromSeed(seed uint64) rand.Source {
	if seed == 0 {
		seed = defaultSeed
	}

	return rand.NewPCG(seed, DeriveSeed(seed, 0))
}

// DeriveSeed mixes a parent seed and a stream identifier into a new seed with
// the SplitMix64 finalizer. Distinct streams of one parent are decorrelated,
// so callers can seed auxiliary generators (synthetic data, restarts) from
// the same user seed as an engine without sharing its sequence.
func DeriveSeed(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return x
}
