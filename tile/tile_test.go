package tile

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTopRow(t *testing.T) {
	b := [Size]byte{0xff}

	tile := Decode(b)

	for x := 0; x < Width; x++ {
		assert.Equal(t, uint8(1), tile[0][x])
	}
	for y := 1; y < Height; y++ {
		for x := 0; x < Width; x++ {
			assert.Equal(t, uint8(0), tile[y][x])
		}
	}
}

func TestDecodePlanes(t *testing.T) {
	tests := []struct {
		name  string
		lo    byte
		hi    byte
		want  [Width]uint8
		inRow int
	}{
		{"msb first", 0x80, 0x00, [Width]uint8{1, 0, 0, 0, 0, 0, 0, 0}, 0},
		{"high plane", 0x00, 0x01, [Width]uint8{0, 0, 0, 0, 0, 0, 0, 2}, 3},
		{"both planes", 0xf0, 0x3c, [Width]uint8{1, 1, 3, 3, 2, 2, 0, 0}, 7},
		{"checkerboard", 0xaa, 0x55, [Width]uint8{1, 2, 1, 2, 1, 2, 1, 2}, 5},
	}

	for _, table := range tests {
		t.Run(table.name, func(t *testing.T) {
			var b [Size]byte
			b[table.inRow] = table.lo
			b[planeSize+table.inRow] = table.hi

			tile := Decode(b)
			assert.Equal(t, table.want, tile[table.inRow])
			assert.Equal(t, table.want, Row(b, table.inRow))
			assert.Equal(t, [Width]uint8{}, Row(b, (table.inRow+1)%Height))
		})
	}
}

func TestEncodeExhaustiveRow(t *testing.T) {
	// Every combination of plane bytes for every row position
	for row := 0; row < Height; row++ {
		for lo := 0; lo < 256; lo++ {
			for _, hi := range []int{0x00, 0xff, lo, 0xff ^ lo, (lo * 7) & 0xff} {
				var b [Size]byte
				b[row] = byte(lo)
				b[planeSize+row] = byte(hi)
				if got := Encode(Decode(b)); got != b {
					t.Fatalf("row %d lo %#02x hi %#02x: got %x", row, lo, hi, got)
				}
			}
		}
	}
}

func TestRoundTripRecords(t *testing.T) {
	f := func(b [Size]byte) bool {
		return Encode(Decode(b)) == b
	}
	assert.NoError(t, quick.Check(f, &quick.Config{MaxCount: 5000}))
}

func TestRoundTripTiles(t *testing.T) {
	f := func(raw [Height][Width]uint8) bool {
		var tile Tile
		for y := range raw {
			for x := range raw[y] {
				tile[y][x] = raw[y][x] & (Colors - 1)
			}
		}
		return Decode(Encode(tile)) == tile
	}
	assert.NoError(t, quick.Check(f, &quick.Config{MaxCount: 5000}))
}

func TestValid(t *testing.T) {
	var tile Tile
	tile.Fill(3)
	assert.True(t, tile.Valid())

	tile[4][6] = 4
	assert.False(t, tile.Valid())
}

func TestSliceHelpers(t *testing.T) {
	var tile Tile
	tile.Fill(2)
	tile[0][0] = 1

	b := make([]byte, Size+4)
	EncodeTo(b[2:], tile)

	assert.Equal(t, []byte{0, 0}, b[:2])
	assert.Equal(t, []byte{0, 0}, b[Size+2:])
	assert.Equal(t, tile, DecodeSlice(b[2:]))
}
