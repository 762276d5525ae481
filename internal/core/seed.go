package core

import (
	"fmt"

	"automata/pkg/rng"
)

// Simple returns a grid with only the center cell alive.
func Simple(dtype DType, shape Shape) (*Grid, error) {
	g, err := NewGrid(dtype, shape...)
	if err != nil {
		return nil, err
	}
	w, h := shape.Size()
	if err := g.Set(shape.Index(w/2, h/2), 1); err != nil {
		return nil, err
	}
	return g, nil
}

// Random returns a grid whose cells are alive with probability density.
func Random(dtype DType, shape Shape, density float64, r *rng.RNG) (*Grid, error) {
	if density < 0 || density > 1 {
		return nil, fmt.Errorf("%w: density %v outside [0,1]", ErrInvalidInput, density)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	states := make([]uint8, shape.Cells())
	if density == 0.5 {
		rng.FillBinary(r.Source(), states)
	} else {
		rng.FillDensity(r.Source(), states, density)
	}
	return FromStates(dtype, shape, states)
}
