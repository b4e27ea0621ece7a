// Package archive pulls ROM images out of compressed collections.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"

	"github.com/valerio/jeebie-shelf/shelf/fileio"
	"github.com/valerio/jeebie-shelf/shelf/rom"
)

var ErrUnsupported = errors.New("unsupported archive format")

// Extensions lists the archive formats Extract understands.
var Extensions = []string{".zip", ".7z", ".rar"}

// Supported reports whether path names an archive Extract can read.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// EntryFunc receives one ROM from an archive. name is the bare filename
// with any directories inside the archive stripped.
type EntryFunc func(name string, r io.Reader) error

// Extract calls fn for every .gb or .gbc file in the archive at path and
// returns how many it found. Other entries are skipped. An error from fn
// aborts the walk.
func Extract(path string, fn EntryFunc) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return extractZip(path, fn)
	case ".7z":
		return extract7z(path, fn)
	case ".rar":
		return extractRar(path, fn)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}

// romName maps an archive entry to the name it is imported under, or ""
// when the entry is not a ROM.
func romName(entry string) string {
	name := filepath.Base(filepath.FromSlash(strings.ReplaceAll(entry, `\`, "/")))
	if name == "." || name == "/" || !rom.Allowed(name) {
		return ""
	}
	return name
}

type opener interface {
	Open() (io.ReadCloser, error)
}

func emit(name string, f opener, fn EntryFunc) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer fileio.Close(rc, "failed to close archive entry")
	return fn(name, rc)
}

func extractZip(path string, fn EntryFunc) (int, error) {
	r, err := zip.OpenReader(path)
	// Insecure names are still readable; romName flattens them.
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && r != nil) {
		return 0, fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer fileio.Close(r, "failed to close zip archive")

	found := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := romName(f.Name)
		if name == "" {
			continue
		}
		if err := emit(name, f, fn); err != nil {
			return found, err
		}
		found++
	}
	return found, nil
}

func extract7z(path string, fn EntryFunc) (int, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer fileio.Close(r, "failed to close 7z archive")

	found := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := romName(f.Name)
		if name == "" {
			continue
		}
		if err := emit(name, f, fn); err != nil {
			return found, err
		}
		found++
	}
	return found, nil
}

func extractRar(path string, fn EntryFunc) (int, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open rar archive: %w", err)
	}
	defer fileio.Close(r, "failed to close rar archive")

	found := 0
	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return found, fmt.Errorf("failed to read rar archive: %w", err)
		}
		if hdr.IsDir {
			continue
		}
		name := romName(hdr.Name)
		if name == "" {
			continue
		}
		// rardecode streams entries: r reads the current file until Next.
		if err := fn(name, r); err != nil {
			return found, err
		}
		found++
	}
}
