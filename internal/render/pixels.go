package render

import "image/color"

// Palette maps cell states to colors: dead, alive, and the dying state used
// by Brian's Brain.
var Palette = []color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0xff, 0xff, 0xff, 0xff},
	{0xff, 0x8c, 0x00, 0xff},
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette.
// States beyond the palette take its last color. When the palette is empty
// the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// fillGlyphs is the text analogue of fillPaletteRGBA: one byte per cell.
func fillGlyphs(buf []byte, cells []uint8, glyphs []byte) {
	last := len(glyphs) - 1
	for i, c := range cells {
		buf[i] = glyphs[min(int(c), last)]
	}
}
