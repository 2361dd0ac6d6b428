/*
Package palette implements the NES master palette and the 4 colour
sub-palettes used to display tiles.

A master palette is 64 colours. It is commonly stored as a .pal file of 192
bytes, three bytes (red, green, blue) per colour. Some files carry all eight
colour emphasis variants for 1536 bytes in total, of which only the first 64
colours are used.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/bodgit/nestile/tile"
)

const (
	// Entries is the number of colours in the master palette
	Entries = 64
	// FileSize is the length of a .pal file without emphasis variants
	FileSize = Entries * 3
	// EmphasisFileSize is the length of a .pal file with all eight
	// emphasis variants
	EmphasisFileSize = FileSize * 8
)

var (
	errSize  = errors.New("palette: incorrect length")
	errIndex = errors.New("palette: master index out of range")
)

// Master is a 64 colour NES master palette. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Master [Entries]color.RGBA

// NES is a 2C02 master palette
var NES = Master{
	{84, 84, 84, 0xff}, {0, 30, 116, 0xff}, {8, 16, 144, 0xff}, {48, 0, 136, 0xff},
	{68, 0, 100, 0xff}, {92, 0, 48, 0xff}, {84, 4, 0, 0xff}, {60, 24, 0, 0xff},
	{32, 42, 0, 0xff}, {8, 58, 0, 0xff}, {0, 64, 0, 0xff}, {0, 60, 0, 0xff},
	{0, 50, 60, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff},
	{152, 150, 152, 0xff}, {8, 76, 196, 0xff}, {48, 50, 236, 0xff}, {92, 30, 228, 0xff},
	{136, 20, 176, 0xff}, {160, 20, 100, 0xff}, {152, 34, 32, 0xff}, {120, 60, 0, 0xff},
	{84, 90, 0, 0xff}, {40, 114, 0, 0xff}, {8, 124, 0, 0xff}, {0, 118, 40, 0xff},
	{0, 102, 120, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff},
	{236, 238, 236, 0xff}, {76, 154, 236, 0xff}, {120, 124, 236, 0xff}, {176, 98, 236, 0xff},
	{228, 84, 236, 0xff}, {236, 88, 180, 0xff}, {236, 106, 100, 0xff}, {212, 136, 32, 0xff},
	{160, 170, 0, 0xff}, {116, 196, 0, 0xff}, {76, 208, 32, 0xff}, {56, 204, 108, 0xff},
	{56, 180, 204, 0xff}, {60, 60, 60, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff},
	{236, 238, 236, 0xff}, {168, 204, 236, 0xff}, {188, 188, 236, 0xff}, {212, 178, 236, 0xff},
	{236, 174, 236, 0xff}, {236, 174, 212, 0xff}, {236, 180, 176, 0xff}, {228, 196, 144, 0xff},
	{204, 210, 120, 0xff}, {180, 222, 120, 0xff}, {168, 226, 144, 0xff}, {152, 226, 180, 0xff},
	{160, 214, 228, 0xff}, {160, 162, 160, 0xff}, {0, 0, 0, 0xff}, {0, 0, 0, 0xff},
}

// Default is the sub-palette used when none is given, the first four
// master colours
var Default = mustSub(NES, 0x00, 0x01, 0x02, 0x03)

func mustSub(m Master, a, b, c, d uint8) color.Palette {
	p, err := m.Sub(a, b, c, d)
	if err != nil {
		panic(err)
	}
	return p
}

// Sub returns a 4 colour palette made from the given master palette indices
func (m *Master) Sub(a, b, c, d uint8) (color.Palette, error) {
	p := make(color.Palette, 0, tile.Colors)
	for _, i := range []uint8{a, b, c, d} {
		if int(i) >= Entries {
			return nil, fmt.Errorf("%w: %#02x", errIndex, i)
		}
		p = append(p, m[i])
	}
	return p, nil
}

// MarshalBinary encodes the palette as a 192 byte .pal file
func (m *Master) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, FileSize)
	for _, c := range m {
		b = append(b, c.R, c.G, c.B)
	}
	return b, nil
}

// UnmarshalBinary decodes a .pal file with or without emphasis variants
func (m *Master) UnmarshalBinary(b []byte) error {
	if len(b) != FileSize && len(b) != EmphasisFileSize {
		return fmt.Errorf("%w: %d bytes", errSize, len(b))
	}
	for i := range m {
		m[i] = color.RGBA{b[i*3], b[i*3+1], b[i*3+2], 0xff}
	}
	return nil
}

// Valid reports whether p can be used to display tiles
func Valid(p color.Palette) bool {
	return len(p) == tile.Colors
}
