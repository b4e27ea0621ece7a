// Package store keeps ROMs and their artifacts as plain files under a single
// media root.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valerio/jeebie-shelf/shelf/fileio"
	"github.com/valerio/jeebie-shelf/shelf/media"
	"github.com/valerio/jeebie-shelf/shelf/rom"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
)

const dirMode = 0o755

// Layout names the directories under the media root.
type Layout struct {
	Root        string
	ROMs        string
	Covers      string
	Screenshots string
	Recordings  string
	States      string
}

func NewLayout(root string) Layout {
	return Layout{
		Root:        root,
		ROMs:        filepath.Join(root, "roms"),
		Covers:      filepath.Join(root, "covers"),
		Screenshots: filepath.Join(root, "screenshots"),
		Recordings:  filepath.Join(root, "recordings"),
		States:      filepath.Join(root, "states"),
	}
}

func (l Layout) dirs() []string {
	return []string{l.ROMs, l.Covers, l.Screenshots, l.Recordings, l.States}
}

// RomEntry describes one stored ROM.
type RomEntry struct {
	Filename       string
	Slug           string
	Title          string
	SizeBytes      int64
	ContentHash    string
	IsColorVariant bool
	ModTime        time.Time
	HasCover       bool
}

// Store is the filesystem-backed artifact store.
type Store struct {
	layout Layout
}

// New returns a store rooted at root. The path is made absolute so every
// later containment check compares canonical paths.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve media root %s: %v", ErrStorageUnavailable, root, err)
	}
	return &Store{layout: NewLayout(abs)}, nil
}

func (s *Store) Layout() Layout {
	return s.layout
}

// EnsureLayout creates every storage directory. Existing directories are
// left alone.
func (s *Store) EnsureLayout() error {
	for _, dir := range s.layout.dirs() {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return nil
}

// ROMPath resolves a ROM filename inside the ROM directory. Hidden names
// such as ".gb" are rejected since List never shows them.
func (s *Store) ROMPath(filename string) (string, error) {
	if strings.HasPrefix(filename, ".") || rom.BaseName(filename) == "" {
		return "", fmt.Errorf("%w: bad filename %q", ErrInvalidInput, filename)
	}
	return resolve(s.layout.ROMs, filename)
}

// CoverPath is where the cover for slug is written.
func (s *Store) CoverPath(slug string) string {
	return filepath.Join(s.layout.Covers, slug+".png")
}

// Save validates the filename and streams r into the ROM directory,
// replacing any ROM with the same name.
func (s *Store) Save(filename string, r io.Reader) (RomEntry, error) {
	if !rom.Allowed(filename) {
		return RomEntry{}, fmt.Errorf("%w: %q is not a .gb or .gbc file", ErrInvalidInput, filename)
	}
	path, err := s.ROMPath(filename)
	if err != nil {
		return RomEntry{}, err
	}
	if err := os.MkdirAll(s.layout.ROMs, dirMode); err != nil {
		return RomEntry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	h := sha256.New()
	var size int64
	err = fileio.WriteAtomic(path, func(w io.Writer) error {
		n, err := io.Copy(io.MultiWriter(w, h), r)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %q is empty", ErrInvalidInput, filename)
		}
		size = n
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return RomEntry{}, err
		}
		return RomEntry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	slog.Info("ROM stored", "filename", filename, "size", size)
	return s.Entry(filename)
}

// Entry describes a stored ROM.
func (s *Store) Entry(filename string) (RomEntry, error) {
	path, err := s.ROMPath(filename)
	if err != nil {
		return RomEntry{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return RomEntry{}, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return RomEntry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return RomEntry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sum := sha256.Sum256(data)
	slug := media.Slug(filename)
	entry := RomEntry{
		Filename:       filename,
		Slug:           slug,
		SizeBytes:      info.Size(),
		ContentHash:    hex.EncodeToString(sum[:]),
		IsColorVariant: rom.IsColor(filename),
		ModTime:        info.ModTime(),
		HasCover:       s.HasCover(slug),
	}
	if h, err := rom.ParseHeader(data); err == nil {
		entry.Title = h.Title
	}
	return entry, nil
}

// List returns every stored ROM, sorted by filename.
func (s *Store) List() ([]RomEntry, error) {
	entries, err := os.ReadDir(s.layout.ROMs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	roms := make([]RomEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !rom.Allowed(e.Name()) {
			continue
		}
		entry, err := s.Entry(e.Name())
		if err != nil {
			slog.Warn("Skipping unreadable ROM", "filename", e.Name(), "error", err)
			continue
		}
		roms = append(roms, entry)
	}
	sort.Slice(roms, func(i, j int) bool { return roms[i].Filename < roms[j].Filename })
	return roms, nil
}

// Exists reports whether a ROM with this filename is stored.
func (s *Store) Exists(filename string) bool {
	path, err := s.ROMPath(filename)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes a ROM and, if present, its cover.
func (s *Store) Delete(filename string) error {
	path, err := s.ROMPath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	fileio.Remove(s.CoverPath(media.Slug(filename)))
	slog.Info("ROM deleted", "filename", filename)
	return nil
}

// HasCover reports whether a cover exists for slug.
func (s *Store) HasCover(slug string) bool {
	_, err := os.Stat(s.CoverPath(slug))
	return err == nil
}

// resolve joins a bare filename onto dir, rejecting anything that is not a
// plain name inside dir.
func resolve(dir, filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("%w: bad filename %q", ErrInvalidInput, filename)
	}
	path, err := fileio.Within(dir, filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return path, nil
}
