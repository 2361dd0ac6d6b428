package ines

import "fmt"

// Storage is the kind of graphics memory used by a cartridge
type Storage int

const (
	// Fixed storage means the image carries a CHR ROM segment
	Fixed Storage = iota
	// Writable storage means the cartridge uses CHR RAM and the image holds
	// no graphics at all
	Writable
)

var storageNames = map[Storage]string{
	Fixed:    "rom",
	Writable: "ram",
}

func (s Storage) String() string {
	if n, ok := storageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Storage(%d)", int(s))
}

// MarshalText implements the encoding.TextMarshaler interface
func (s Storage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Segment is the position of the graphics data within an image
type Segment struct {
	Offset  int
	Length  int
	Storage Storage
}

// End returns the offset of the first byte after the segment
func (s Segment) End() int {
	return s.Offset + s.Length
}

// prgOffset returns where the PRG segment starts, after the header and any
// trainer
func prgOffset(h *Header) int {
	if h.Trainer() {
		return HeaderSize + TrainerSize
	}
	return HeaderSize
}

// Locate works out the graphics segment from the header alone
func Locate(h *Header) Segment {
	s := Segment{
		Offset: prgOffset(h) + h.PRGSize(),
		Length: h.CHRSize(),
	}
	if s.Length == 0 {
		s.Storage = Writable
	}
	return s
}

// PRG returns the program segment of image, which must hold at least the
// segments the header declares
func PRG(image []byte, h *Header) ([]byte, error) {
	if err := checkLength(image, h); err != nil {
		return nil, err
	}
	start := prgOffset(h)
	end := start + h.PRGSize()
	return image[start:end:end], nil
}

func checkLength(image []byte, h *Header) error {
	if need := Locate(h).End(); len(image) < need {
		return fmt.Errorf("%w: header needs %d bytes, image has %d", ErrTruncated, need, len(image))
	}
	return nil
}
