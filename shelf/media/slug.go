package media

import (
	"strings"

	"github.com/valerio/jeebie-shelf/shelf/rom"
)

// keyPrefixLen is how much of a ROM key is compared against the start of a
// capture filename, for captures whose names were truncated.
const keyPrefixLen = 10

// Slug derives the cover name for a ROM: the base name without extension,
// with every character outside [A-Za-z0-9_-] replaced by '_'.
//
// Distinct names can share a slug ("Game (1).gb" and "Game_1_.gb"); the
// later cover then replaces the earlier one.
func Slug(filename string) string {
	base := rom.BaseName(filename)
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		if r < 0x80 && (isAlnum(byte(r)) || r == '_' || r == '-') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Key is the uppercase alphanumeric projection of a file's base name.
func Key(filename string) string {
	base := rom.BaseName(filename)
	var b strings.Builder
	b.Grow(len(base))
	for i := 0; i < len(base); i++ {
		c := base[i]
		if isAlnum(c) {
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// KeysMatch reports whether a capture with fileKey belongs to the ROM with
// romKey: either romKey occurs in fileKey, or fileKey starts with the first
// ten characters of romKey.
//
// Short keys match loosely. An empty romKey matches every file, and ROMs that
// share a ten character prefix match each other's captures.
func KeysMatch(romKey, fileKey string) bool {
	if strings.Contains(fileKey, romKey) {
		return true
	}
	prefix := romKey
	if len(prefix) > keyPrefixLen {
		prefix = prefix[:keyPrefixLen]
	}
	return strings.HasPrefix(fileKey, prefix)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
