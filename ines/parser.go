package ines

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/bodgit/nestile/bank"
	"github.com/bodgit/nestile/tile"
)

// DefaultBankSize is the size of each bank returned by ListBanks unless a
// different size is configured
const DefaultBankSize = CHRUnit

var (
	// ErrNoGraphicsData is returned when graphics are requested from a
	// cartridge that uses CHR RAM
	ErrNoGraphicsData = errors.New("ines: no graphics data, cartridge uses CHR RAM")
	// ErrTruncated is returned when an image is shorter than its header
	// claims
	ErrTruncated = errors.New("ines: truncated image")
	// ErrBankSize is returned for a bank size that cannot hold whole tiles
	ErrBankSize = errors.New("ines: invalid bank size")
)

// Info summarises a cartridge image for display
type Info struct {
	Format        Format    `json:"format"`
	Mapper        uint16    `json:"mapper"`
	Submapper     uint8     `json:"submapper"`
	Mirroring     Mirroring `json:"mirroring"`
	Battery       bool      `json:"battery"`
	Trainer       bool      `json:"trainer"`
	PRGSize       int       `json:"prg_size"`
	CHRSize       int       `json:"chr_size"`
	CHRStorage    Storage   `json:"chr_storage"`
	BankSize      int       `json:"bank_size"`
	BankCount     int       `json:"bank_count"`
	TrailingBytes int       `json:"trailing_bytes"`
}

// Parser splits cartridge images into banks of a fixed size
type Parser struct {
	bankSize int
	logger   *log.Logger
}

// NewParser returns a Parser producing banks of bankSize bytes, which must
// be a positive multiple of 16. Warnings are written to logger, which may be
// nil.
func NewParser(bankSize int, logger *log.Logger) (*Parser, error) {
	if bankSize <= 0 || bankSize%tile.Size != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBankSize, bankSize)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Parser{
		bankSize: bankSize,
		logger:   logger,
	}, nil
}

// BankSize returns the configured bank size in bytes
func (p *Parser) BankSize() int {
	return p.bankSize
}

func (p *Parser) split(s Segment) (int, int) {
	return s.Length / p.bankSize, s.Length % p.bankSize
}

// ListBanks returns read-only views of each whole bank within the graphics
// segment of image. Bytes left over after the last whole bank are ignored
// with a warning.
func (p *Parser) ListBanks(image []byte, h *Header) ([]*bank.Bank, error) {
	s := Locate(h)
	if s.Storage == Writable {
		return nil, ErrNoGraphicsData
	}
	if err := checkLength(image, h); err != nil {
		return nil, err
	}

	n, trailing := p.split(s)
	if trailing > 0 {
		p.logger.Printf("Ignoring %d trailing bytes after %d banks of %d bytes\n", trailing, n, p.bankSize)
	}

	banks := make([]*bank.Bank, 0, n)
	for i := 0; i < n; i++ {
		b, err := bank.NewView(image, s.Offset+i*p.bankSize, p.bankSize/tile.Size)
		if err != nil {
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, nil
}

// Bank parses image and returns bank i
func (p *Parser) Bank(image []byte, i int) (*bank.Bank, error) {
	h, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	p.warn(h)

	banks, err := p.ListBanks(image, h)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(banks) {
		return nil, fmt.Errorf("%w: bank %d of %d", bank.ErrIndexOutOfRange, i, len(banks))
	}
	return banks[i], nil
}

// Inspect parses image and returns its metadata. A cartridge using CHR RAM is
// not an error here; it is reported with zero banks.
func (p *Parser) Inspect(image []byte) (*Info, error) {
	h, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	p.warn(h)

	if err := checkLength(image, h); err != nil {
		return nil, err
	}

	s := Locate(h)
	info := &Info{
		Format:     h.Format(),
		Mapper:     h.Mapper(),
		Submapper:  h.Submapper(),
		Mirroring:  h.Mirroring(),
		Battery:    h.Battery(),
		Trainer:    h.Trainer(),
		PRGSize:    h.PRGSize(),
		CHRSize:    s.Length,
		CHRStorage: s.Storage,
		BankSize:   p.bankSize,
	}
	info.BankCount, info.TrailingBytes = p.split(s)

	return info, nil
}

func (p *Parser) warn(h *Header) {
	if h.DirtyTail() {
		p.logger.Printf("Header bytes 12-15 are not zero, mapper %d may be wrong\n", h.Mapper())
	}
}

var defaultParser, _ = NewParser(DefaultBankSize, nil)

// ListBanks is like Parser.ListBanks using banks of DefaultBankSize bytes
func ListBanks(image []byte, h *Header) ([]*bank.Bank, error) {
	return defaultParser.ListBanks(image, h)
}

// Inspect is like Parser.Inspect using banks of DefaultBankSize bytes
func Inspect(image []byte) (*Info, error) {
	return defaultParser.Inspect(image)
}
