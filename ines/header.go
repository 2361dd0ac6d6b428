/*
Package ines implements a reader for the iNES cartridge image format and its
NES 2.0 extension.

An image is a 16 byte header, an optional 512 byte trainer, the PRG (program)
segment and finally the CHR (graphics) segment. The header fields are spread
over non-contiguous bits so every field is extracted by its own accessor.

The package never writes images; graphics are exposed as read-only banks over
the caller's buffer.
*/
package ines

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the length of the header in bytes
	HeaderSize = 16
	// TrainerSize is the length of the optional trainer in bytes
	TrainerSize = 512
	// PRGUnit is the size of one PRG unit in bytes
	PRGUnit = 16 << 10
	// CHRUnit is the size of one CHR unit in bytes
	CHRUnit = 8 << 10

	magic = "NES\x1a"

	flags6Mirroring  = 1 << 0
	flags6Battery    = 1 << 1
	flags6Trainer    = 1 << 2
	flags6FourScreen = 1 << 3

	flags7Console   = 0x03
	flags7Format    = 0x0c
	flags7Extended  = 0x08
	exponentNibble  = 0x0f
	maxSizeExponent = 27
)

var (
	// ErrBadMagic is returned when the image does not start with the iNES
	// signature
	ErrBadMagic = errors.New("ines: bad magic number")
	// ErrShortHeader is returned when fewer than 16 header bytes are
	// available
	ErrShortHeader = errors.New("ines: short header")
	// ErrUnsupported is returned for size fields no image could satisfy
	ErrUnsupported = errors.New("ines: unsupported header")
)

// Format identifies the header generation
type Format int

const (
	// Legacy is the original iNES header
	Legacy Format = iota
	// Extended is the NES 2.0 header
	Extended
)

var formatNames = map[Format]string{
	Legacy:   "iNES",
	Extended: "NES 2.0",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// MarshalText implements the encoding.TextMarshaler interface
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Mirroring is the nametable arrangement of the cartridge
type Mirroring int

const (
	// Horizontal mirroring (vertical arrangement)
	Horizontal Mirroring = iota
	// Vertical mirroring (horizontal arrangement)
	Vertical
	// FourScreen means the cartridge provides its own nametable memory
	FourScreen
)

var mirroringNames = map[Mirroring]string{
	Horizontal: "horizontal",
	Vertical:   "vertical",
	FourScreen: "four-screen",
}

func (m Mirroring) String() string {
	if s, ok := mirroringNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mirroring(%d)", int(m))
}

// MarshalText implements the encoding.TextMarshaler interface
func (m Mirroring) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Console is the console type stored in flags 7
type Console int

const (
	// NES is a regular console or Famicom
	NES Console = iota
	// VsSystem is the Vs. arcade system
	VsSystem
	// PlayChoice is the PlayChoice-10 arcade system
	PlayChoice
	// ExtendedConsole means the type is given elsewhere in a NES 2.0 header
	ExtendedConsole
)

var consoleNames = map[Console]string{
	NES:             "NES",
	VsSystem:        "Vs. System",
	PlayChoice:      "PlayChoice-10",
	ExtendedConsole: "extended",
}

func (c Console) String() string {
	if s, ok := consoleNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Console(%d)", int(c))
}

// Header is a parsed cartridge header. It keeps the raw bytes and derives
// every field on demand.
type Header struct {
	raw [HeaderSize]byte
}

// mapperLow returns mapper bits 0-3 from the high nibble of flags 6
func mapperLow(flags6 byte) uint16 {
	return uint16(flags6 >> 4)
}

// mapperMid returns mapper bits 4-7 from the high nibble of flags 7
func mapperMid(flags7 byte) uint16 {
	return uint16(flags7 & 0xf0)
}

// mapperHigh returns mapper bits 8-11 from the low nibble of NES 2.0 byte 8
func mapperHigh(b8 byte) uint16 {
	return uint16(b8&0x0f) << 8
}

func submapper(b8 byte) uint8 {
	return b8 >> 4
}

func isExtended(flags7 byte) bool {
	return flags7&flags7Format == flags7Extended
}

func mirroring(flags6 byte) Mirroring {
	if flags6&flags6FourScreen != 0 {
		return FourScreen
	}
	return Mirroring(flags6 & flags6Mirroring)
}

// exponentSize decodes the NES 2.0 exponent-multiplier size notation
func exponentSize(lsb byte) int {
	e, m := uint(lsb>>2), int(lsb&0x03)
	return (1 << e) * (m*2 + 1)
}

// ParseHeader parses the first 16 bytes of b. The magic number is checked
// before anything else.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < len(magic) || string(b[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}

	h := new(Header)
	copy(h.raw[:], b)

	for _, size := range [][2]byte{{h.prgMSB(), h.raw[4]}, {h.chrMSB(), h.raw[5]}} {
		if size[0] == exponentNibble && size[1]>>2 > maxSizeExponent {
			return nil, fmt.Errorf("%w: size exponent %d", ErrUnsupported, size[1]>>2)
		}
	}

	return h, nil
}

// Format returns the header generation
func (h *Header) Format() Format {
	if isExtended(h.raw[7]) {
		return Extended
	}
	return Legacy
}

// DirtyTail reports whether a legacy header has non-zero bytes 12-15. Old
// header tools wrote text such as "DiskDude!" over the end of the header, in
// which case the flags 7 mapper nibble may be garbage too. The header is still
// read as written.
func (h *Header) DirtyTail() bool {
	if h.Format() == Extended {
		return false
	}
	for _, b := range h.raw[12:16] {
		if b != 0 {
			return true
		}
	}
	return false
}

// Mapper returns the mapper number
func (h *Header) Mapper() uint16 {
	m := mapperLow(h.raw[6]) | mapperMid(h.raw[7])
	if h.Format() == Extended {
		m |= mapperHigh(h.raw[8])
	}
	return m
}

// Submapper returns the NES 2.0 submapper, always zero for legacy headers
func (h *Header) Submapper() uint8 {
	if h.Format() != Extended {
		return 0
	}
	return submapper(h.raw[8])
}

// Mirroring returns the nametable mirroring, four-screen overriding the
// horizontal/vertical bit
func (h *Header) Mirroring() Mirroring {
	return mirroring(h.raw[6])
}

// Battery reports whether the cartridge has battery-backed memory
func (h *Header) Battery() bool {
	return h.raw[6]&flags6Battery != 0
}

// Trainer reports whether a 512 byte trainer precedes the PRG segment
func (h *Header) Trainer() bool {
	return h.raw[6]&flags6Trainer != 0
}

// FourScreen reports whether the four-screen bit is set
func (h *Header) FourScreen() bool {
	return h.raw[6]&flags6FourScreen != 0
}

// Console returns the console type
func (h *Header) Console() Console {
	return Console(h.raw[7] & flags7Console)
}

func (h *Header) prgMSB() byte {
	if h.Format() != Extended {
		return 0
	}
	return h.raw[9] & 0x0f
}

func (h *Header) chrMSB() byte {
	if h.Format() != Extended {
		return 0
	}
	return h.raw[9] >> 4
}

// PRGUnits returns the PRG size in 16KB units. It returns -1 when a NES 2.0
// header uses exponent notation, in which case only PRGSize is meaningful.
func (h *Header) PRGUnits() int {
	if h.prgMSB() == exponentNibble {
		return -1
	}
	return int(h.prgMSB())<<8 | int(h.raw[4])
}

// CHRUnits returns the CHR size in 8KB units. It returns -1 when a NES 2.0
// header uses exponent notation, in which case only CHRSize is meaningful.
func (h *Header) CHRUnits() int {
	if h.chrMSB() == exponentNibble {
		return -1
	}
	return int(h.chrMSB())<<8 | int(h.raw[5])
}

// PRGSize returns the PRG segment length in bytes
func (h *Header) PRGSize() int {
	if u := h.PRGUnits(); u >= 0 {
		return u * PRGUnit
	}
	return exponentSize(h.raw[4])
}

// CHRSize returns the CHR segment length in bytes, zero meaning the
// cartridge uses CHR RAM
func (h *Header) CHRSize() int {
	if u := h.CHRUnits(); u >= 0 {
		return u * CHRUnit
	}
	return exponentSize(h.raw[5])
}

// MarshalBinary returns the raw header bytes
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	copy(b, h.raw[:])
	return b, nil
}

func (h *Header) String() string {
	return fmt.Sprintf("%s, mapper %d, prg %d, chr %d, %s", h.Format(), h.Mapper(), h.PRGSize(), h.CHRSize(), h.Mirroring())
}
