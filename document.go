package nestile

import (
	"errors"
	"fmt"
	"os"

	"github.com/bodgit/nestile/bank"
	"github.com/bodgit/nestile/ines"
	"github.com/bodgit/nestile/tile"
)

var (
	// ErrNoSink is returned when saving a document that has nowhere to
	// save to
	ErrNoSink = errors.New("nestile: document has no sink")

	// ErrReadOnly is returned when modifying or saving a document opened
	// from a cartridge image
	ErrReadOnly = bank.ErrReadOnly
	// ErrIndexOutOfRange is returned for a bad tile or bank index
	ErrIndexOutOfRange = bank.ErrIndexOutOfRange
	// ErrMalformed is returned for tile data that is not a multiple of 16
	// bytes
	ErrMalformed = bank.ErrMalformed
	// ErrBadMagic is returned for a cartridge image with the wrong
	// signature
	ErrBadMagic = ines.ErrBadMagic
	// ErrNoGraphicsData is returned when opening a bank from a cartridge
	// that uses CHR RAM
	ErrNoGraphicsData = ines.ErrNoGraphicsData
)

// Document is a bank of tiles being edited. Documents opened from
// standalone tile data can be modified and saved; documents opened from a
// cartridge image are read-only and can only be persisted by exporting them.
type Document struct {
	bank  *bank.Bank
	sink  Sink
	dirty bool
}

// OpenStandalone returns a document holding a copy of the tile data in b.
// Saving the document writes to sink, which may be nil and set later.
func OpenStandalone(b []byte, sink Sink) (*Document, error) {
	bk, err := bank.Load(b)
	if err != nil {
		return nil, err
	}
	return &Document{
		bank: bk,
		sink: sink,
	}, nil
}

func openFromContainer(p *ines.Parser, image []byte, index int) (*Document, error) {
	bk, err := p.Bank(image, index)
	if err != nil {
		return nil, err
	}
	return &Document{
		bank: bk,
	}, nil
}

// OpenFromContainer returns a read-only document for bank index of the
// cartridge image, using banks of ines.DefaultBankSize bytes. The document
// refers directly to image, which must not be modified while the document is
// open.
func OpenFromContainer(image []byte, index int) (*Document, error) {
	p, err := ines.NewParser(ines.DefaultBankSize, nil)
	if err != nil {
		return nil, err
	}
	return openFromContainer(p, image, index)
}

// OpenFile opens the standalone tile file at path. The document saves back
// to the same file.
func OpenFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", path, err)
	}
	d, err := OpenStandalone(b, FileSink(path))
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", path, err)
	}
	return d, nil
}

// OpenContainerFile opens bank index of the cartridge image at path
func OpenContainerFile(path string, index int) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", path, err)
	}
	d, err := OpenFromContainer(b, index)
	if err != nil {
		return nil, fmt.Errorf("opening file '%s': %w", path, err)
	}
	return d, nil
}

// TileCount returns the number of tiles in the document
func (d *Document) TileCount() int {
	return d.bank.Len()
}

// Tile returns tile i
func (d *Document) Tile(i int) (tile.Tile, error) {
	return d.bank.Get(i)
}

// Bank returns a read-only view of the document's tiles. Edits made through
// SetTile show through the view.
func (d *Document) Bank() *bank.Bank {
	return d.bank.View()
}

// Tiles returns every tile in the document
func (d *Document) Tiles() []tile.Tile {
	return d.bank.Tiles()
}

// SetTile replaces tile i and marks the document dirty
func (d *Document) SetTile(i int, t tile.Tile) error {
	if err := d.bank.Set(i, t); err != nil {
		return err
	}
	d.dirty = true
	return nil
}

// Dirty reports whether the document has been modified since it was opened
// or last saved
func (d *Document) Dirty() bool {
	return d.dirty
}

// Mutable reports whether the document can be modified and saved
func (d *Document) Mutable() bool {
	return !d.bank.ReadOnly()
}

// Sink returns where the document is saved to
func (d *Document) Sink() Sink {
	return d.sink
}

// SetSink changes where the document is saved to
func (d *Document) SetSink(s Sink) {
	d.sink = s
}

// Bytes returns a copy of the tile data
func (d *Document) Bytes() []byte {
	return d.bank.Clone().Bytes()
}

// Save writes the tile data to the document sink. The dirty flag is only
// cleared if the sink succeeds.
func (d *Document) Save() error {
	if !d.Mutable() {
		return ErrReadOnly
	}
	if d.sink == nil {
		return ErrNoSink
	}
	if err := d.sink.Store(d.bank.Bytes()); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	d.dirty = false
	return nil
}

// ExportStandalone returns a new, independent and mutable document holding a
// copy of the tile data, saving to sink.
func (d *Document) ExportStandalone(sink Sink) *Document {
	return &Document{
		bank: d.bank.Clone(),
		sink: sink,
	}
}
