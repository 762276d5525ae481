package storage

import (
	"context"
	"testing"
	"time"

	"automata/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, alpha float64) *Ledger {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	l, err := NewLedger(store, alpha)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}

func TestLedgerMovingAverage(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, 0.5)

	require.NoError(t, l.Record(ctx, "a", 1))
	require.NoError(t, l.Record(ctx, "a", 0))
	require.NoError(t, l.Record(ctx, "a", 1))

	got, ok, err := l.store.GetScore(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	// 1 -> 0.5 -> 0.75
	assert.InDelta(t, 0.75, got.Score, 1e-9)
	assert.Equal(t, 1.0, got.Last)
	assert.Equal(t, 3, got.Rounds)
	assert.Equal(t, 2026, got.Updated.Year())
}

func TestLedgerStandings(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, DefaultAlpha)
	require.NoError(t, l.Record(ctx, "low", 0.1))
	require.NoError(t, l.Record(ctx, "high", 0.9))
	require.NoError(t, l.Record(ctx, "mid", 0.5))

	standings, err := l.Standings(ctx)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, []string{"high", "mid", "low"},
		[]string{standings[0].Responder, standings[1].Responder, standings[2].Responder})
}

func TestLedgerSaveRound(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, DefaultAlpha)
	require.NoError(t, l.SaveRound(ctx, sampleRound(t)))

	rec, ok, err := l.store.GetRound(ctx, "round-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(12), rec.DurationMS)
}

func TestLedgerRejectsBadAlpha(t *testing.T) {
	for _, alpha := range []float64{0, -0.1, 1.5} {
		_, err := NewLedger(NewMemoryStore(), alpha)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	}
}
