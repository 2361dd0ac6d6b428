/*
Package nestile is a library for editing the 2 bits per pixel tile graphics
used by NES cartridges.

Tile data is either a standalone file of 16 byte tile records, which can be
edited and saved, or the CHR segment of an iNES cartridge image, which is only
ever read. A Nestile also maintains a catalog of scanned cartridge images.
*/
package nestile

import (
	"io"
	"log"

	"github.com/bodgit/nestile/ines"
)

// Nestile ties a cartridge parser to an optional catalog
type Nestile struct {
	db     *Catalog
	parser *ines.Parser
	logger *log.Logger
}

// New returns a Nestile using db for the catalog, which may be nil if Scan is
// not needed, and parser to split cartridge images into banks.
func New(db *Catalog, parser *ines.Parser, logger *log.Logger) *Nestile {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Nestile{
		db:     db,
		parser: parser,
		logger: logger,
	}
}

// OpenFromContainer is like the package level function but uses the
// configured bank size
func (n *Nestile) OpenFromContainer(image []byte, index int) (*Document, error) {
	return openFromContainer(n.parser, image, index)
}

// Inspect returns the metadata of a cartridge image
func (n *Nestile) Inspect(image []byte) (*ines.Info, error) {
	return n.parser.Inspect(image)
}
