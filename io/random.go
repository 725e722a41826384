package io

import (
	"math/rand/v2"
)

// Random is a seedable source of uniformly distributed bytes.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a source with a fixed seed. A zero seed selects a
// random seed.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Random{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Byte returns the next random byte.
func (r *Random) Byte() uint8 {
	return uint8(r.rng.UintN(256))
}
