package domain

import (
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Selector picks an index in [0, n) among n same-tier phrasing candidates.
type Selector func(n int) int

// ClockSelector derives the index from the wall clock in 100ms buckets. Output
// is reproducible only when the clock is frozen.
func ClockSelector(clock clockwork.Clock) Selector {
	return func(n int) int {
		if n <= 0 {
			return 0
		}
		return int((clock.Now().UnixMilli() / 100) % int64(n))
	}
}

// FixedSelector always picks index i (wrapped into range).
func FixedSelector(i int) Selector {
	return func(n int) int {
		if n <= 0 {
			return 0
		}
		return ((i % n) + n) % n
	}
}

// SeededSelector draws indexes from a deterministic PCG stream.
func SeededSelector(seed uint64) Selector {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(n int) int {
		if n <= 0 {
			return 0
		}
		mu.Lock()
		defer mu.Unlock()
		return rng.IntN(n)
	}
}
