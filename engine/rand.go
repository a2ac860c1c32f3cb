package engine

import (
	"math/rand"
	"time"
)

// Rand is the source of randomness for seeding shuffles and tie-breaks.
// It is injected rather than read from the global generator so callers
// (and tests) can supply a deterministic sequence.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// New returns a time-seeded source suitable for production use.
func New() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
