package rng

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// New creates a deterministic RNG using the provided seed.
func New(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// IntRange returns a random int in [lo, hi]. Swapped bounds are tolerated.
func (r *RNG) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.r.IntN(hi-lo+1)
}

// Pick returns a random element of items. It returns the zero value for an
// empty slice.
func Pick[T any](r *RNG, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[r.r.IntN(len(items))]
}

// FillBinary fills buf with 0/1 values of equal probability, drawing one
// 64-bit word per 64 cells.
func FillBinary(r *rand.Rand, buf []uint8) {
	var bits uint64
	for i := range buf {
		if i%64 == 0 {
			bits = r.Uint64()
		}
		buf[i] = uint8(bits & 1)
		bits >>= 1
	}
}

// FillDensity sets each cell to 1 with probability density and 0 otherwise.
func FillDensity(r *rand.Rand, buf []uint8, density float64) {
	for i := range buf {
		buf[i] = 0
		if r.Float64() < density {
			buf[i] = 1
		}
	}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
