package engine

import "automata/internal/core"

// offset is a relative cell position; dy is always 0 on 1-D grids.
type offset struct{ dx, dy int }

// offsets lists the window positions in row-major order. The window is
// symmetric, so the center cell sits at len/2.
func offsets(dims, radius int, n Neighborhood) []offset {
	if dims == 1 {
		out := make([]offset, 0, 2*radius+1)
		for dx := -radius; dx <= radius; dx++ {
			out = append(out, offset{dx: dx})
		}
		return out
	}
	var out []offset
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if n == VonNeumann && abs(dx)+abs(dy) > radius {
				continue
			}
			out = append(out, offset{dx: dx, dy: dy})
		}
	}
	return out
}

// window gathers neighborhoods from a periodic grid.
type window struct {
	w, h int
	offs []offset
	buf  []uint8
}

func newWindow(shape core.Shape, p Params) *window {
	w, h := shape.Size()
	offs := offsets(shape.Dims(), p.Radius, p.Neighborhood)
	return &window{w: w, h: h, offs: offs, buf: make([]uint8, len(offs))}
}

// gather fills the window buffer for cell idx of cells. The returned slice is
// reused on the next call.
func (win *window) gather(cells []uint8, idx int) []uint8 {
	w, h := win.w, win.h
	x, y := idx%w, idx/w
	for i, o := range win.offs {
		nx := (x + o.dx + w) % w
		ny := (y + o.dy + h) % h
		win.buf[i] = cells[ny*w+nx]
	}
	return win.buf
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
