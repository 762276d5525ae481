// Package render draws grids and evolution histories as text or PNG.
package render

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"

	"automata/internal/core"
	"automata/internal/engine"
)

// Glyphs are the default characters for states 0, 1 and 2.
var Glyphs = []byte{'.', '#', 'o'}

// Grid writes g as text, one line per row.
func Grid(w io.Writer, g *core.Grid) error {
	bw := bufio.NewWriter(w)
	if err := writeGrid(bw, g); err != nil {
		return err
	}
	return bw.Flush()
}

func writeGrid(bw *bufio.Writer, g *core.Grid) error {
	cells, err := g.States()
	if err != nil {
		return err
	}
	width, height := g.Shape().Size()
	line := make([]byte, width+1)
	line[width] = '\n'
	for y := range height {
		fillGlyphs(line[:width], cells[y*width:(y+1)*width], Glyphs)
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// History writes every generation. A 1-D history becomes a space-time
// diagram with one line per generation; a 2-D history is written as frames
// separated by a "t=N" header.
func History(w io.Writer, h engine.History) error {
	if len(h) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	oneD := h[0].Shape().Dims() == 1
	for t, g := range h {
		if !oneD {
			if _, err := fmt.Fprintf(bw, "t=%d\n", t); err != nil {
				return err
			}
		}
		if err := writeGrid(bw, g); err != nil {
			return err
		}
		if !oneD && t < len(h)-1 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Image rasterizes h. 1-D histories become a space-time diagram; 2-D
// histories render their last generation. Each cell becomes a scale×scale
// block.
func Image(h engine.History, scale int) (*image.RGBA, error) {
	if len(h) == 0 {
		return nil, fmt.Errorf("%w: empty history", core.ErrInvalidInput)
	}
	if scale < 1 {
		scale = 1
	}

	var rows [][]uint8
	if h[0].Shape().Dims() == 1 {
		for _, g := range h {
			cells, err := g.States()
			if err != nil {
				return nil, err
			}
			rows = append(rows, cells)
		}
	} else {
		last := h.Last()
		cells, err := last.States()
		if err != nil {
			return nil, err
		}
		width, height := last.Shape().Size()
		for y := range height {
			rows = append(rows, cells[y*width:(y+1)*width])
		}
	}

	width := len(rows[0])
	img := image.NewRGBA(image.Rect(0, 0, width*scale, len(rows)*scale))
	line := make([]byte, 4*width)
	for y, row := range rows {
		fillPaletteRGBA(line, row, Palette)
		for dy := range scale {
			off := img.PixOffset(0, y*scale+dy)
			for x := range width {
				px := line[4*x : 4*x+4]
				for dx := range scale {
					copy(img.Pix[off+4*(x*scale+dx):], px)
				}
			}
		}
	}
	return img, nil
}

// PNG encodes Image(h, scale) to w.
func PNG(w io.Writer, h engine.History, scale int) error {
	img, err := Image(h, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
