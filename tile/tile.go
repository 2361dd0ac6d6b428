/*
Package tile implements the NES 2 bits per pixel tile decoder and encoder.

Each tile is 8 by 8 pixels stored in 16 bytes as two bitplanes. The first 8
bytes hold the low bit of each pixel, one byte per row, and the next 8 bytes
hold the high bit. Within a row byte the most significant bit is the leftmost
pixel. A pixel value is therefore a 2-bit index into a 4 colour palette.
*/
package tile

import "errors"

const (
	// Width is the width of a tile in pixels
	Width = 8
	// Height is the height of a tile in pixels
	Height = Width
	// Size is the number of bytes used to store a tile
	Size = Width * Height * bitsPerPixel / 8

	// Colors is the number of distinct pixel values
	Colors = 1 << bitsPerPixel

	bitsPerPixel = 2
	planeSize    = Height
)

// ErrColorRange is returned when a tile holds a pixel value that does not fit
// in 2 bits
var ErrColorRange = errors.New("tile: color index out of range")

// Tile is an 8 by 8 grid of palette indices addressed as [row][column]
type Tile [Height][Width]uint8

// Valid reports whether every pixel is in the range 0-3
func (t *Tile) Valid() bool {
	for y := range t {
		for _, c := range t[y] {
			if c >= Colors {
				return false
			}
		}
	}
	return true
}

// Fill sets every pixel to c
func (t *Tile) Fill(c uint8) {
	for y := range t {
		for x := range t[y] {
			t[y][x] = c
		}
	}
}

func lowPlane(b *[Size]byte, row int) byte {
	return b[row]
}

func highPlane(b *[Size]byte, row int) byte {
	return b[planeSize+row]
}

// pixel returns the 2-bit value of column x from a pair of plane bytes
func pixel(lo, hi byte, x int) uint8 {
	bit := uint(Width - 1 - x)
	return lo>>bit&1 | (hi>>bit&1)<<1
}

// Row decodes row y of a 16 byte tile record, y must be 0-7
func Row(b [Size]byte, y int) [Width]uint8 {
	var r [Width]uint8
	lo, hi := lowPlane(&b, y), highPlane(&b, y)
	for x := range r {
		r[x] = pixel(lo, hi, x)
	}
	return r
}

// Decode converts a 16 byte tile record into a Tile. Every input decodes to a
// valid tile.
func Decode(b [Size]byte) Tile {
	var t Tile
	for y := range t {
		t[y] = Row(b, y)
	}
	return t
}

// DecodeSlice is like Decode but reads the record from the start of b, which
// must be at least Size bytes long.
func DecodeSlice(b []byte) Tile {
	var tmp [Size]byte
	copy(tmp[:], b[:Size])
	return Decode(tmp)
}

// Encode converts t into a 16 byte tile record. Only the low 2 bits of each
// pixel are used; callers that need to reject out of range pixels should check
// Valid first.
func Encode(t Tile) [Size]byte {
	var b [Size]byte
	for y := 0; y < Height; y++ {
		var lo, hi byte
		for x := 0; x < Width; x++ {
			bit := uint(Width - 1 - x)
			lo |= (t[y][x] & 1) << bit
			hi |= (t[y][x] >> 1 & 1) << bit
		}
		b[y] = lo
		b[planeSize+y] = hi
	}
	return b
}

// EncodeTo writes the record for t into the first Size bytes of b
func EncodeTo(b []byte, t Tile) {
	r := Encode(t)
	copy(b[:Size], r[:])
}
