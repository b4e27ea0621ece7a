// Package romtest builds minimal cartridge images for tests.
package romtest

import "github.com/valerio/jeebie-shelf/shelf/rom"

// Size is the length of images produced by Image: two 16KiB banks.
const Size = 0x8000

// Image returns a 32KiB ROM with the given title and a valid header checksum.
func Image(title string) []byte {
	data := make([]byte, Size)
	copy(data[0x134:0x13F], title)
	// Nintendo-style entry point: nop; jp $0150
	copy(data[0x100:0x104], []byte{0x00, 0xC3, 0x50, 0x01})
	data[0x14D] = rom.HeaderChecksum(data)
	return data
}

// ColorImage is Image with the CGB-compatible flag set.
func ColorImage(title string) []byte {
	data := Image(title)
	data[0x143] = 0x80
	data[0x14D] = rom.HeaderChecksum(data)
	return data
}

// Corrupt returns an image whose header checksum does not match.
func Corrupt(title string) []byte {
	data := Image(title)
	data[0x14D]++
	return data
}
