/*
Package image converts between NES tile data and images.

Tiles are laid out on a sheet in row-major order, a fixed number of tiles per
row, each tile occupying 8 by 8 pixels. A sheet is an image.Paletted using a 4
colour palette so the pixel value of every tile maps directly to a colour
index. Any image whose dimensions are multiples of 8 can be converted back into
tile data; images with more than 4 colours are quantized first.
*/
package image

import (
	"image/color"

	"github.com/bodgit/nestile/palette"
	"github.com/bodgit/nestile/tile"
)

// DefaultColumns is the number of tiles per row on a sheet
const DefaultColumns = 16

// Options controls how tiles are laid out on a sheet
type Options struct {
	// Palette must hold exactly 4 colours, palette.Default if nil
	Palette color.Palette
	// Columns is the number of tiles per row, DefaultColumns if zero
	Columns int
}

func (o *Options) palette() color.Palette {
	if o == nil || o.Palette == nil {
		return palette.Default
	}
	return o.Palette
}

func (o *Options) columns() int {
	if o == nil || o.Columns <= 0 {
		return DefaultColumns
	}
	return o.Columns
}

// dimensions returns the sheet size in pixels for n tiles
func (o *Options) dimensions(n int) (int, int) {
	cols := o.columns()
	rows := (n + cols - 1) / cols
	return cols * tile.Width, rows * tile.Height
}
