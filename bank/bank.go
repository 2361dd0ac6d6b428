/*
Package bank implements an indexable run of NES tiles backed by a contiguous
byte region.

A bank either owns its bytes or is a read-only view into a larger buffer such
as a cartridge image. Tiles are decoded on access and only the tiles that are
written are re-encoded, so untouched regions are returned byte for byte.
*/
package bank

import (
	"errors"
	"fmt"
	"math"

	"github.com/bodgit/nestile/tile"
)

var (
	// ErrMalformed is returned when the backing region does not hold a
	// whole number of tiles
	ErrMalformed = errors.New("bank: malformed tile data")
	// ErrIndexOutOfRange is returned for a tile index past the end of the
	// bank
	ErrIndexOutOfRange = errors.New("bank: index out of range")
	// ErrReadOnly is returned when writing to a view
	ErrReadOnly = errors.New("bank: read-only")
)

// Backing describes who owns the bytes behind a Bank
type Backing int

const (
	// Owned banks have exclusive use of their buffer
	Owned Backing = iota
	// View banks borrow a region of a buffer owned by someone else and
	// cannot be modified
	View
)

func (b Backing) String() string {
	switch b {
	case Owned:
		return "owned"
	case View:
		return "view"
	default:
		return fmt.Sprintf("Backing(%d)", int(b))
	}
}

// Bank is an ordered collection of tiles. A Bank must not be written from
// more than one goroutine at a time.
type Bank struct {
	data    []byte
	backing Backing
}

// MaxTiles is the most tiles an owned bank can be created with
const MaxTiles = math.MaxInt32 / tile.Size

func region(buf []byte, offset, count int) ([]byte, error) {
	if offset < 0 || count < 0 || offset > len(buf) {
		return nil, fmt.Errorf("%w: offset %d, %d tiles", ErrMalformed, offset, count)
	}
	// Compare in tiles so a huge count can't overflow
	if count > (len(buf)-offset)/tile.Size {
		return nil, fmt.Errorf("%w: need %d tiles at offset %d, have %d bytes", ErrMalformed, count, offset, len(buf)-offset)
	}
	end := offset + count*tile.Size
	// Cap the slice so nothing can append into the rest of buf
	return buf[offset:end:end], nil
}

// New returns an owned bank of count blank tiles
func New(count int) (*Bank, error) {
	if count < 0 || count > MaxTiles {
		return nil, fmt.Errorf("%w: %d tiles", ErrMalformed, count)
	}
	return &Bank{
		data:    make([]byte, count*tile.Size),
		backing: Owned,
	}, nil
}

// FromBytes returns an owned bank holding a copy of count tiles read from buf
// starting at offset.
func FromBytes(buf []byte, offset, count int) (*Bank, error) {
	r, err := region(buf, offset, count)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(r))
	copy(data, r)
	return &Bank{
		data:    data,
		backing: Owned,
	}, nil
}

// Load returns an owned bank holding a copy of buf, which must be a multiple
// of 16 bytes long.
func Load(buf []byte) (*Bank, error) {
	if len(buf)%tile.Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformed, len(buf), tile.Size)
	}
	return FromBytes(buf, 0, len(buf)/tile.Size)
}

// NewView returns a read-only bank over count tiles of buf starting at offset.
// No bytes are copied; buf must outlive the bank and must not be modified
// while the bank is in use.
func NewView(buf []byte, offset, count int) (*Bank, error) {
	r, err := region(buf, offset, count)
	if err != nil {
		return nil, err
	}
	return &Bank{
		data:    r,
		backing: View,
	}, nil
}

// FromTiles encodes tiles into a new owned bank
func FromTiles(tiles []tile.Tile) (*Bank, error) {
	b, err := New(len(tiles))
	if err != nil {
		return nil, err
	}
	for i, t := range tiles {
		if err := b.Set(i, t); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Len returns the number of tiles in the bank
func (b *Bank) Len() int {
	return len(b.data) / tile.Size
}

// Size returns the length of the backing region in bytes
func (b *Bank) Size() int {
	return len(b.data)
}

// Backing returns how the bank bytes are held
func (b *Bank) Backing() Backing {
	return b.backing
}

// ReadOnly reports whether Set will always fail
func (b *Bank) ReadOnly() bool {
	return b.backing == View
}

func (b *Bank) check(i int) error {
	if i < 0 || i >= b.Len() {
		return fmt.Errorf("%w: tile %d of %d", ErrIndexOutOfRange, i, b.Len())
	}
	return nil
}

// Get decodes tile i
func (b *Bank) Get(i int) (tile.Tile, error) {
	if err := b.check(i); err != nil {
		return tile.Tile{}, err
	}
	return tile.DecodeSlice(b.data[i*tile.Size:]), nil
}

// Set encodes t into slot i
func (b *Bank) Set(i int, t tile.Tile) error {
	if err := b.check(i); err != nil {
		return err
	}
	if b.ReadOnly() {
		return ErrReadOnly
	}
	if !t.Valid() {
		return fmt.Errorf("tile %d: %w", i, tile.ErrColorRange)
	}
	tile.EncodeTo(b.data[i*tile.Size:], t)
	return nil
}

// Tiles decodes every tile in the bank
func (b *Bank) Tiles() []tile.Tile {
	tiles := make([]tile.Tile, b.Len())
	for i := range tiles {
		tiles[i] = tile.DecodeSlice(b.data[i*tile.Size:])
	}
	return tiles
}

// Bytes returns the backing region. For an owned bank this is the bank's own
// buffer; a view returns a copy so the borrowed buffer cannot be modified
// through it.
func (b *Bank) Bytes() []byte {
	if b.ReadOnly() {
		return b.Clone().data
	}
	return b.data
}

// View returns a read-only bank sharing b's bytes, so later writes to an
// owned b show through it
func (b *Bank) View() *Bank {
	return &Bank{
		data:    b.data[:len(b.data):len(b.data)],
		backing: View,
	}
}

// Clone returns an owned copy of the bank regardless of how b is backed
func (b *Bank) Clone() *Bank {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Bank{
		data:    data,
		backing: Owned,
	}
}
