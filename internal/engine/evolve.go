// Package engine advances grids through discrete timesteps under a rule,
// neighborhood and radius. Boundaries are periodic: a grid wraps around on
// every axis, so each cell sees a full neighborhood.
package engine

import (
	"context"
	"fmt"
	"time"

	"automata/internal/core"
)

// History holds one grid per timestep, starting with the initial state.
type History []*core.Grid

// Last returns the final grid, or nil for an empty history.
func (h History) Last() *core.Grid {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

type options struct {
	memoize bool
}

// Option tunes a single Evolve call.
type Option func(*options)

// WithMemo enables the per-call transition memo for step-invariant rules.
func WithMemo(enabled bool) Option {
	return func(o *options) { o.memoize = enabled }
}

// Evolve runs p.Steps generations starting from initial and returns the
// history of p.Steps+1 grids. Each generation is computed from a full
// snapshot of the previous one. The initial grid is never modified.
//
// Evolve checks ctx between generations and stops early once it is done.
func Evolve(ctx context.Context, initial *core.Grid, p Params, opts ...Option) (History, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		if p.Steps <= 0 {
			return nil, fmt.Errorf("%w: %w", core.ErrSimulation, err)
		}
		return nil, err
	}
	if initial == nil {
		return nil, fmt.Errorf("%w: nil grid", core.ErrInvalidInput)
	}
	shape := initial.Shape()
	if err := p.Check(shape); err != nil {
		return nil, err
	}
	cur, err := initial.States()
	if err != nil {
		return nil, err
	}
	states := p.Rule.States()
	for i, v := range cur {
		if int(v) >= states {
			return nil, fmt.Errorf("%w: cell %d holds %d, %s has %d states",
				core.ErrInvalidInput, i, v, p.Rule, states)
		}
	}

	start := time.Now()
	rule := p.Rule.String()
	history, err := run(ctx, initial, cur, p, o)
	evolveDuration.WithLabelValues(rule).Observe(time.Since(start).Seconds())
	if err != nil {
		evolveTotal.WithLabelValues(rule, "error").Inc()
		return nil, err
	}
	evolveTotal.WithLabelValues(rule, "ok").Inc()
	return history, nil
}

func run(ctx context.Context, initial *core.Grid, cur []uint8, p Params, o options) (History, error) {
	shape := initial.Shape()
	dtype := initial.DType()
	win := newWindow(shape, p)
	nxt := make([]uint8, len(cur))
	states := uint8(p.Rule.States())

	var m *memo
	if o.memoize && p.Rule.StepInvariant() {
		m = newMemo()
		defer func() {
			memoLookups.WithLabelValues("hit").Add(float64(m.hits))
			memoLookups.WithLabelValues("miss").Add(float64(m.misses))
		}()
	}

	history := make(History, 0, p.Steps+1)
	history = append(history, initial.Clone())
	for step := 1; step <= p.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: stopped before step %d: %w", core.ErrSimulation, step, err)
		}
		for i := range cur {
			window := win.gather(cur, i)
			var v uint8
			cached := false
			if m != nil {
				v, cached = m.get(window)
			}
			if !cached {
				v = p.Rule.Next(window, cur[i], step)
				if m != nil {
					m.put(window, v)
				}
			}
			if v >= states {
				return nil, fmt.Errorf("%w: %s produced state %d at step %d cell %d",
					core.ErrSimulation, p.Rule, v, step, i)
			}
			nxt[i] = v
		}
		g, err := core.FromStates(dtype, shape, nxt)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrSimulation, err)
		}
		history = append(history, g)
		cur, nxt = nxt, cur
	}
	return history, nil
}
