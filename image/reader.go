package image

import (
	"errors"
	"image"
	"io"

	"github.com/bodgit/nestile/bank"
	"github.com/bodgit/nestile/palette"
	"github.com/bodgit/nestile/tile"
)

var errPalette = errors.New("image: palette must have 4 colors")

// Render draws tiles onto a new sheet
func Render(tiles []tile.Tile, o *Options) (*image.Paletted, error) {
	p := o.palette()
	if !palette.Valid(p) {
		return nil, errPalette
	}

	w, h := o.dimensions(len(tiles))
	m := image.NewPaletted(image.Rect(0, 0, w, h), p)

	cols := o.columns()
	for i, t := range tiles {
		tx, ty := i%cols*tile.Width, i/cols*tile.Height
		for y := 0; y < tile.Height; y++ {
			for x := 0; x < tile.Width; x++ {
				m.SetColorIndex(tx+x, ty+y, t[y][x]&(tile.Colors-1))
			}
		}
	}

	return m, nil
}

func readBank(r io.Reader) (*bank.Bank, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bank.Load(b)
}

// Decode reads raw tile data from r and returns it rendered as a sheet
func Decode(r io.Reader, o *Options) (image.Image, error) {
	b, err := readBank(r)
	if err != nil {
		return nil, err
	}
	return Render(b.Tiles(), o)
}

// DecodeConfig returns the color model and dimensions of the sheet for the
// tile data in r without decoding any tiles.
func DecodeConfig(r io.Reader, o *Options) (image.Config, error) {
	b, err := readBank(r)
	if err != nil {
		return image.Config{}, err
	}
	p := o.palette()
	if !palette.Valid(p) {
		return image.Config{}, errPalette
	}
	w, h := o.dimensions(b.Len())
	return image.Config{
		ColorModel: p,
		Width:      w,
		Height:     h,
	}, nil
}
