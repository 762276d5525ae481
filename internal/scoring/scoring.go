// Package scoring turns verified executor output into per-responder scores.
// Scorers only ever see grids whose digest has already been checked.
package scoring

import (
	"context"
	"fmt"
	"sync"

	"automata/internal/core"
	"automata/internal/engine"
)

// Query is what the requester asked for in one round.
type Query struct {
	Params  engine.Params
	Initial *core.Grid
}

// Scorer maps a verified grid to a score. Higher is better.
type Scorer interface {
	Score(ctx context.Context, q Query, g *core.Grid) (float64, error)
}

// Func adapts a plain function to Scorer.
type Func func(ctx context.Context, q Query, g *core.Grid) (float64, error)

// Score calls f.
func (f Func) Score(ctx context.Context, q Query, g *core.Grid) (float64, error) { return f(ctx, q, g) }

// Uniform gives every verified grid a score of 1.
type Uniform struct{}

// Score returns 1.
func (Uniform) Score(context.Context, Query, *core.Grid) (float64, error) { return 1, nil }

// Agreement recomputes the expected final grid and scores a response by the
// fraction of cells that match it. The reference is computed once per query
// and reused for every responder of the same round.
type Agreement struct {
	Memoize bool

	mu    sync.Mutex
	query Query
	want  *core.Grid
}

// Score returns the matching-cell fraction in [0, 1]. Grids with a different
// shape or dtype score 0.
func (a *Agreement) Score(ctx context.Context, q Query, g *core.Grid) (float64, error) {
	want, err := a.reference(ctx, q)
	if err != nil {
		return 0, err
	}
	if g.DType() != want.DType() || !g.Shape().Equal(want.Shape()) {
		return 0, nil
	}
	match := 0
	for i := 0; i < want.Len(); i++ {
		if want.At(i) == g.At(i) {
			match++
		}
	}
	return float64(match) / float64(want.Len()), nil
}

func (a *Agreement) reference(ctx context.Context, q Query) (*core.Grid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.want != nil && a.query.Params == q.Params && a.query.Initial.Equal(q.Initial) {
		return a.want, nil
	}
	h, err := engine.Evolve(ctx, q.Initial, q.Params, engine.WithMemo(a.Memoize))
	if err != nil {
		return nil, fmt.Errorf("reference run: %w", err)
	}
	a.query, a.want = q, h.Last()
	return a.want, nil
}

// New returns the scorer registered under name.
func New(name string) (Scorer, error) {
	switch name {
	case "uniform":
		return Uniform{}, nil
	case "agreement", "":
		return &Agreement{Memoize: true}, nil
	}
	return nil, fmt.Errorf("%w: unknown scorer %q", core.ErrInvalidInput, name)
}

// Normalize scales scores so they sum to 1. An all-zero set is returned as is.
func Normalize(scores map[string]float64) map[string]float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	out := make(map[string]float64, len(scores))
	for k, s := range scores {
		if total == 0 {
			out[k] = s
			continue
		}
		out[k] = s / total
	}
	return out
}
