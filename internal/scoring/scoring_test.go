package scoring

import (
	"context"
	"testing"

	"automata/internal/core"
	"automata/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func query(t *testing.T) Query {
	t.Helper()
	g, err := core.Simple(core.Uint8, core.Shape{16})
	require.NoError(t, err)
	p, err := engine.NewParams(5, "Rule30", 1, "Moore")
	require.NoError(t, err)
	return Query{Params: p, Initial: g}
}

func TestAgreementScoresHonestGridOne(t *testing.T) {
	q := query(t)
	h, err := engine.Evolve(context.Background(), q.Initial, q.Params)
	require.NoError(t, err)

	a := &Agreement{}
	s, err := a.Score(context.Background(), q, h.Last())
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestAgreementPartialCredit(t *testing.T) {
	q := query(t)
	h, err := engine.Evolve(context.Background(), q.Initial, q.Params)
	require.NoError(t, err)

	wrong := h.Last().Clone()
	flip := int64(1) - wrong.At(0)
	require.NoError(t, wrong.Set(0, flip))
	flip = int64(1) - wrong.At(1)
	require.NoError(t, wrong.Set(1, flip))

	s, err := (&Agreement{}).Score(context.Background(), q, wrong)
	require.NoError(t, err)
	assert.InDelta(t, 14.0/16.0, s, 1e-9)
}

func TestAgreementShapeMismatchScoresZero(t *testing.T) {
	q := query(t)
	other, err := core.NewGrid(core.Uint8, 8)
	require.NoError(t, err)
	s, err := (&Agreement{}).Score(context.Background(), q, other)
	require.NoError(t, err)
	assert.Zero(t, s)
}

func TestUniform(t *testing.T) {
	s, err := Uniform{}.Score(context.Background(), query(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestNew(t *testing.T) {
	s, err := New("uniform")
	require.NoError(t, err)
	assert.IsType(t, Uniform{}, s)

	_, err = New("stake")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestNormalize(t *testing.T) {
	got := Normalize(map[string]float64{"a": 1, "b": 3, "c": 0})
	assert.InDelta(t, 0.25, got["a"], 1e-9)
	assert.InDelta(t, 0.75, got["b"], 1e-9)
	assert.Zero(t, got["c"])

	zero := Normalize(map[string]float64{"a": 0})
	assert.Zero(t, zero["a"])
}
