package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 64; i++ {
		require.Equal(t, a.IntRange(10, 20), b.IntRange(10, 20))
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 500; i++ {
		v := r.IntRange(20, 10)
		assert.GreaterOrEqual(t, v, 10)
		assert.LessOrEqual(t, v, 20)
	}
	assert.Equal(t, 5, r.IntRange(5, 5))
}

func TestPick(t *testing.T) {
	r := New(1)
	assert.Equal(t, "", Pick(r, []string(nil)))
	items := []string{"a", "b", "c"}
	for i := 0; i < 20; i++ {
		assert.Contains(t, items, Pick(r, items))
	}
}

func TestFillDensityExtremes(t *testing.T) {
	r := New(3).Source()
	buf := make([]uint8, 32)
	FillDensity(r, buf, 0)
	for _, v := range buf {
		require.Equal(t, uint8(0), v)
	}
	FillDensity(r, buf, 1)
	for _, v := range buf {
		require.Equal(t, uint8(1), v)
	}
}

func TestFillBinaryMixesStates(t *testing.T) {
	buf := make([]uint8, 1000)
	FillBinary(New(8).Source(), buf)
	ones := 0
	for _, v := range buf {
		require.LessOrEqual(t, v, uint8(1))
		ones += int(v)
	}
	assert.InDelta(t, 500, ones, 100)

	again := make([]uint8, 1000)
	FillBinary(New(8).Source(), again)
	assert.Equal(t, buf, again)
}
