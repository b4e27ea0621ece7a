package rom

import (
	"path/filepath"
	"strings"
)

const (
	ExtGB  = ".gb"
	ExtGBC = ".gbc"
)

// Extensions lists the file extensions accepted as ROMs.
var Extensions = []string{ExtGB, ExtGBC}

// Allowed reports whether the filename carries an accepted ROM extension.
// The comparison ignores case, so "TETRIS.GB" is accepted.
func Allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsColor reports whether the filename denotes a Game Boy Color ROM.
func IsColor(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ExtGBC
}

// BaseName strips the directory and extension from a ROM filename.
func BaseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
