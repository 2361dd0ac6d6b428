package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sort"

	"github.com/bodgit/nestile/tile"
	"github.com/ericpauley/go-quantize/quantize"
)

var errSize = errors.New("image: dimensions must be a multiple of 8")

// luma returns the brightness of c
func luma(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

// Darkest first so index 0 is normally the background
func sortPalette(p color.Palette) {
	sort.SliceStable(p, func(i, j int) bool {
		return luma(p[i]) < luma(p[j])
	})
}

// paletted returns m as an image.Paletted with no more than 4 colours,
// quantizing it if necessary
func paletted(m image.Image) *image.Paletted {
	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok && len(cp) <= tile.Colors {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}

	if pm == nil || len(pm.Palette) > tile.Colors {
		q := quantize.MedianCutQuantizer{}
		p := q.Quantize(make(color.Palette, 0, tile.Colors), m)
		sortPalette(p)
		pm = image.NewPaletted(b, p)
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return pm
}

// Tiles converts m into tiles in row-major order
func Tiles(m image.Image) ([]tile.Tile, error) {
	b := m.Bounds()
	if b.Dx()%tile.Width != 0 || b.Dy()%tile.Height != 0 {
		return nil, errSize
	}

	pm := paletted(m)

	cols, rows := b.Dx()/tile.Width, b.Dy()/tile.Height
	tiles := make([]tile.Tile, 0, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			var t tile.Tile
			for y := 0; y < tile.Height; y++ {
				for x := 0; x < tile.Width; x++ {
					t[y][x] = pm.ColorIndexAt(tx*tile.Width+x, ty*tile.Height+y)
				}
			}
			if !t.Valid() {
				return nil, tile.ErrColorRange
			}
			tiles = append(tiles, t)
		}
	}

	return tiles, nil
}

// Encode writes the Image m to w as raw tile data
func Encode(w io.Writer, m image.Image) error {
	tiles, err := Tiles(m)
	if err != nil {
		return err
	}

	for _, t := range tiles {
		b := tile.Encode(t)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}

	return nil
}
