package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestClockSelector_FrozenClock(t *testing.T) {
	// 1_234_567ms -> bucket 12345 -> 12345 % 3 == 0
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_234_567))
	sel := ClockSelector(clock)

	assert.Equal(t, 0, sel(3))
	assert.Equal(t, 0, sel(3), "frozen clock gives a stable pick")

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, sel(3))
}

func TestFixedSelector(t *testing.T) {
	assert.Equal(t, 2, FixedSelector(2)(3))
	assert.Equal(t, 1, FixedSelector(4)(3))
	assert.Equal(t, 2, FixedSelector(-1)(3))
	assert.Equal(t, 0, FixedSelector(5)(0))
}

func TestSeededSelector_Reproducible(t *testing.T) {
	a := SeededSelector(42)
	b := SeededSelector(42)
	for range 50 {
		x, y := a(7), b(7)
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 0)
		assert.Less(t, x, 7)
	}
}
