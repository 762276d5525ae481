package core

import (
	"bytes"
	"fmt"
)

// Grid stores a 1-D or 2-D grid of discrete cell values in row-major order.
// The backing buffer is little-endian with elements of DType width, so its
// length is always Shape.Cells() * DType.Width().
//
// A Grid is treated as a value: constructors copy their inputs and accessors
// hand out copies, so nothing downstream of an encode can alter it.
type Grid struct {
	dtype DType
	shape Shape
	data  []byte
}

// NewGrid allocates a zeroed grid with the given element type and shape.
func NewGrid(dtype DType, shape ...int) (*Grid, error) {
	if dtype.Width() == 0 {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrInvalidInput, dtype)
	}
	s := Shape(shape).Clone()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Grid{dtype: dtype, shape: s, data: make([]byte, s.Cells()*dtype.Width())}, nil
}

// FromBytes reinterprets buf under dtype and shape. It fails with
// ErrMalformedShape when the buffer length disagrees with the shape.
func FromBytes(dtype DType, shape Shape, buf []byte) (*Grid, error) {
	if dtype.Width() == 0 {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrMalformedShape, dtype)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShape, err)
	}
	// Compare in cells so a huge declared shape cannot wrap the byte count.
	if w := dtype.Width(); len(buf)%w != 0 || len(buf)/w != shape.Cells() {
		return nil, fmt.Errorf("%w: %d bytes for shape %v of %s",
			ErrMalformedShape, len(buf), []int(shape), dtype)
	}
	return &Grid{dtype: dtype, shape: shape.Clone(), data: bytes.Clone(buf)}, nil
}

// FromStates builds a grid whose cells hold the given small states.
func FromStates(dtype DType, shape Shape, states []uint8) (*Grid, error) {
	g, err := NewGrid(dtype, shape...)
	if err != nil {
		return nil, err
	}
	if len(states) != g.Len() {
		return nil, fmt.Errorf("%w: %d states for %d cells", ErrMalformedShape, len(states), g.Len())
	}
	for i, v := range states {
		if err := g.Set(i, int64(v)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MustStates is FromStates for fixtures known to be valid. It panics on error.
func MustStates(dtype DType, shape Shape, states []uint8) *Grid {
	g, err := FromStates(dtype, shape, states)
	if err != nil {
		panic(err)
	}
	return g
}

// DType returns the element type.
func (g *Grid) DType() DType { return g.dtype }

// Shape returns a copy of the grid's shape.
func (g *Grid) Shape() Shape { return g.shape.Clone() }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.shape.Cells() }

// Bytes returns a copy of the raw row-major buffer.
func (g *Grid) Bytes() []byte { return bytes.Clone(g.data) }

// At returns the value of cell i.
func (g *Grid) At(i int) int64 {
	w := g.dtype.Width()
	return g.dtype.get(g.data[i*w : (i+1)*w])
}

// Set writes v into cell i. It is meant for building fresh grids; grids that
// have been handed to the codec or the engine must not be modified.
func (g *Grid) Set(i int, v int64) error {
	if i < 0 || i >= g.Len() {
		return fmt.Errorf("%w: cell %d out of range [0,%d)", ErrInvalidInput, i, g.Len())
	}
	if !g.dtype.fits(v) {
		return fmt.Errorf("%w: value %d does not fit %s", ErrInvalidInput, v, g.dtype)
	}
	w := g.dtype.Width()
	g.dtype.put(g.data[i*w:(i+1)*w], v)
	return nil
}

// States returns the cells as bytes. Cells outside [0, 255] cannot be cell
// states and fail with ErrInvalidInput.
func (g *Grid) States() ([]uint8, error) {
	out := make([]uint8, g.Len())
	for i := range out {
		v := g.At(i)
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: cell %d holds %d", ErrInvalidInput, i, v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{dtype: g.dtype, shape: g.shape.Clone(), data: bytes.Clone(g.data)}
}

// Equal reports whether both grids share dtype, shape and bytes.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.dtype == o.dtype && g.shape.Equal(o.shape) && bytes.Equal(g.data, o.data)
}

// Count returns the number of cells equal to v.
func (g *Grid) Count(v int64) int {
	n := 0
	for i := 0; i < g.Len(); i++ {
		if g.At(i) == v {
			n++
		}
	}
	return n
}
