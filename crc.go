package nestile

import (
	"fmt"
	"hash/crc32"

	"github.com/bodgit/nestile/ines"
)

// romCRC returns the CRC-32 of everything after the header and any trainer,
// which is how ROM sets identify cartridge images regardless of header
// revisions
func romCRC(image []byte, h *ines.Header) string {
	start := ines.HeaderSize
	if h.Trainer() {
		start += ines.TrainerSize
	}
	if start > len(image) {
		start = len(image)
	}
	return fmt.Sprintf("%0*X", crc32.Size<<1, crc32.ChecksumIEEE(image[start:]))
}

// CRC returns the catalog key of a cartridge image
func CRC(image []byte) (string, error) {
	h, err := ines.ParseHeader(image)
	if err != nil {
		return "", err
	}
	return romCRC(image, h), nil
}
