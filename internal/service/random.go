package service

import (
	"math/rand/v2"
	"sync"
)

// Random is the randomness the services draw from.
type Random interface {
	IntN(n int) int
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int   { return rand.IntN(n) }
func (globalRandom) Float64() float64 { return rand.Float64() }

// SeededRandom is a goroutine-safe deterministic source for tests and reproducible runs.
type SeededRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRandom builds a PCG source from the two seeds.
func NewSeededRandom(seed1, seed2 uint64) *SeededRandom {
	return &SeededRandom{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

// IntN returns a value in [0, n).
func (r *SeededRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}

// Float64 returns a value in [0, 1).
func (r *SeededRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}
