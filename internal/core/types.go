package core

import (
	"fmt"
	"math"
	"slices"
)

// MaxDims is the highest grid dimensionality the engine evolves.
const MaxDims = 2

// Shape lists the dimension sizes of a grid, outermost first. A 2-D shape is
// {H, W}; a 1-D shape is {W}.
type Shape []int

// Cells returns the product of all dimensions.
func (s Shape) Cells() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Dims returns the number of dimensions.
func (s Shape) Dims() int { return len(s) }

// Equal reports whether both shapes have identical dimensions.
func (s Shape) Equal(o Shape) bool { return slices.Equal(s, o) }

// Clone returns an independent copy.
func (s Shape) Clone() Shape { return slices.Clone(s) }

// Validate checks that the shape is 1-D or 2-D with positive dimensions
// whose product fits in an int.
func (s Shape) Validate() error {
	if len(s) == 0 || len(s) > MaxDims {
		return fmt.Errorf("%w: shape %v must have 1 or %d dimensions", ErrInvalidInput, []int(s), MaxDims)
	}
	n := 1
	for _, d := range s {
		if d <= 0 {
			return fmt.Errorf("%w: shape %v has a non-positive dimension", ErrInvalidInput, []int(s))
		}
		if n > math.MaxInt/d {
			return fmt.Errorf("%w: shape %v overflows the cell count", ErrInvalidInput, []int(s))
		}
		n *= d
	}
	return nil
}

// Size returns the width and height of the shape. 1-D shapes report H=1.
func (s Shape) Size() (w, h int) {
	switch len(s) {
	case 1:
		return s[0], 1
	case 2:
		return s[1], s[0]
	}
	return 0, 0
}

// Index returns the linear row-major index for coordinates (x, y).
func (s Shape) Index(x, y int) int {
	w, _ := s.Size()
	return y*w + x
}

// Wrap applies toroidal wrapping to the provided coordinates.
func (s Shape) Wrap(x, y int) (int, int) {
	w, h := s.Size()
	x = (x%w + w) % w
	y = (y%h + h) % h
	return x, y
}
