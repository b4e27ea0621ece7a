package rom

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const titleLength = 11

const (
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D
	globalChecksumAddress = 0x14E

	// HeaderEnd is the first address past the cartridge header.
	HeaderEnd = 0x150
)

var (
	ErrTooShort       = errors.New("rom too short to contain a cartridge header")
	ErrHeaderChecksum = errors.New("cartridge header checksum mismatch")
)

// Header holds the metadata stored in the cartridge header at 0x100-0x14F.
type Header struct {
	Title          string
	CGBFlag        uint8
	CartType       uint8
	ROMSize        uint8
	RAMSize        uint8
	Version        uint8
	HeaderChecksum uint8
	GlobalChecksum uint16
}

// SupportsColor reports whether the header flags CGB support (0x80) or CGB-only (0xC0).
func (h Header) SupportsColor() bool {
	return h.CGBFlag == 0x80 || h.CGBFlag == 0xC0
}

// ParseHeader reads and validates the cartridge header of a ROM image.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderEnd {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}

	h := Header{
		CGBFlag:        data[cgbFlagAddress],
		CartType:       data[cartridgeTypeAddress],
		ROMSize:        data[romSizeAddress],
		RAMSize:        data[ramSizeAddress],
		Version:        data[versionNumberAddress],
		HeaderChecksum: data[headerChecksumAddress],
		GlobalChecksum: uint16(data[globalChecksumAddress])<<8 | uint16(data[globalChecksumAddress+1]),
	}

	// CGB cartridges reuse the last title bytes for the manufacturer code and flag.
	titleBytes := data[titleAddress : titleAddress+titleLength]
	h.Title = cleanTitle(titleBytes)

	if sum := HeaderChecksum(data); sum != h.HeaderChecksum {
		return h, fmt.Errorf("%w: want %#02x, got %#02x", ErrHeaderChecksum, h.HeaderChecksum, sum)
	}

	return h, nil
}

// HeaderChecksum computes the boot ROM checksum over 0x134-0x14C.
// The caller must pass at least HeaderEnd bytes.
func HeaderChecksum(data []byte) uint8 {
	var x uint8
	for i := titleAddress; i < headerChecksumAddress; i++ {
		x = x - data[i] - 1
	}
	return x
}

// cleanTitle converts NUL padding to spaces, replaces non-printable bytes
// with '?' and trims the result.
func cleanTitle(titleBytes []byte) string {
	runes := make([]rune, 0, len(titleBytes))
	for _, b := range titleBytes {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}

	title := strings.TrimSpace(string(runes))
	if title == "" {
		return "(Untitled)"
	}
	return title
}
