// Package random provides seed generation for the path generator's PRNG.
//
// Seeds come from crypto/rand; the generator itself runs on a deterministic
// PCG source so a recorded seed replays the exact same graph.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// New returns a deterministic generator for seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ResolveSeed returns explicit when set, otherwise a fresh seed from gen.
func ResolveSeed(explicit *uint64, gen func() (uint64, error)) (uint64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if gen == nil {
		gen = NewSeed
	}
	return gen()
}
