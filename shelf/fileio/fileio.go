// Package fileio holds the small file helpers shared by every writer under
// the media root: atomic replacement, containment checks, and close/remove
// calls whose failures are only worth a log line.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned by Within when a path escapes its base directory.
var ErrOutsideBase = errors.New("invalid path traversal detected")

// Close closes c and logs any error with msg.
func Close(c io.Closer, msg string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn(msg, "error", err)
	}
}

// Remove deletes path, logging any failure other than the file being absent.
func Remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Remove failed", "path", path, "error", err)
	}
}

// Within returns the cleaned path if it lies inside base.
func Within(base, path string) (string, error) {
	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(base)

	rel, err := filepath.Rel(cleanBase, cleanPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, path)
	}
	return cleanPath, nil
}

// WriteAtomic writes the content produced by write into a temporary file in
// the destination directory and renames it over path once write succeeds.
// Readers never observe a partially written file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		Close(tmp, "failed to close temp file")
		Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
