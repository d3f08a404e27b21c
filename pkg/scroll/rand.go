package scroll

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// Rand is the random source used for direction, distance and count sampling.
// *rand.Rand satisfies it; tests plug in fixed sequences.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a seeded source. Not safe for concurrent use; create one
// per loop invocation.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed)) //#nosec G404 -- gesture fuzzing, not security
}

func defaultRand(r Rand) Rand {
	if r != nil {
		return r
	}
	return NewRand(time.Now().UnixNano())
}

// intBetween draws uniformly from [lo, hi] inclusive.
func intBetween(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// resolveDirection turns vertical/horizontal into a concrete direction by
// coin flip. Concrete directions pass through without consuming randomness.
func resolveDirection(r Rand, d core.Direction) core.Direction {
	switch d {
	case core.DirectionVertical:
		if r.Intn(2) == 0 {
			return core.DirectionUp
		}
		return core.DirectionDown
	case core.DirectionHorizontal:
		if r.Intn(2) == 0 {
			return core.DirectionLeft
		}
		return core.DirectionRight
	}
	return d
}

// Shuffle permutes n elements in place (Fisher-Yates, back to front).
func Shuffle(r Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}

// PickDistinct returns k distinct elements of pool in random order.
// The pool itself is not modified.
func PickDistinct[T any](r Rand, k int, pool []T) ([]T, error) {
	if k < 0 || k > len(pool) {
		return nil, core.ErrInvalidRange.WithMessage(
			fmt.Sprintf("cannot pick %d distinct items from %d", k, len(pool)))
	}
	shuffled := make([]T, len(pool))
	copy(shuffled, pool)
	Shuffle(defaultRand(r), len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:k], nil
}
