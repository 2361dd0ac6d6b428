package nestile

import (
	"bytes"

	"github.com/bodgit/nestile/ines"
	"github.com/bodgit/nestile/tile"
)

// patterns are single plane test tiles, each row given as the low plane byte
var patterns = map[string][tile.Height]byte{
	"checkerboard": {0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55, 0xaa, 0x55},
	"vlines":       {0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	"hlines":       {0xff, 0x00, 0xff, 0x00, 0xff, 0x00, 0xff, 0x00},
	"border":       {0xff, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xff},
	"x":            {0x81, 0x42, 0x24, 0x18, 0x18, 0x24, 0x42, 0x81},
	"diagonal":     {0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01},
	"circle":       {0x3c, 0x42, 0x81, 0x81, 0x81, 0x81, 0x42, 0x3c},
}

func lowPlaneTile(name string) []byte {
	b := make([]byte, tile.Size)
	p := patterns[name]
	copy(b, p[:])
	return b
}

// solidTiles returns one tile of each colour
func solidTiles() [][]byte {
	tiles := make([][]byte, 0, tile.Colors)
	for c := uint8(0); c < tile.Colors; c++ {
		var t tile.Tile
		t.Fill(c)
		b := tile.Encode(t)
		tiles = append(tiles, b[:])
	}
	return tiles
}

// cycle fills n tiles by repeating tiles in order
func cycle(tiles [][]byte, n int) []byte {
	b := new(bytes.Buffer)
	for i := 0; i < n; i++ {
		b.Write(tiles[i%len(tiles)])
	}
	return b.Bytes()
}

// SampleCHR returns 256 tiles of standalone tile data cycling through a set
// of test patterns
func SampleCHR() []byte {
	tiles := solidTiles()
	for _, name := range []string{"checkerboard", "vlines", "hlines", "border", "x", "diagonal", "circle"} {
		tiles = append(tiles, lowPlaneTile(name))
	}
	return cycle(tiles, 256)
}

// SampleROM returns a cartridge image with one PRG unit and two CHR units,
// each 8KB bank holding a different set of patterns
func SampleROM() []byte {
	header := make([]byte, ines.HeaderSize)
	copy(header, "NES\x1a")
	header[4] = 1
	header[5] = 2

	prg := make([]byte, ines.PRGUnit)
	for i := range prg {
		prg[i] = byte(i)
	}

	perBank := ines.CHRUnit / tile.Size
	bank0 := cycle(append(solidTiles(), lowPlaneTile("checkerboard"), lowPlaneTile("border")), perBank)
	bank1 := cycle([][]byte{lowPlaneTile("x"), lowPlaneTile("diagonal"), lowPlaneTile("circle"), lowPlaneTile("vlines")}, perBank)

	b := new(bytes.Buffer)
	b.Write(header)
	b.Write(prg)
	b.Write(bank0)
	b.Write(bank1)
	return b.Bytes()
}
