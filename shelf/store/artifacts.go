package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/jeebie-shelf/shelf/media"
)

// Slots is the number of save-state slots per ROM.
const Slots = 3

var ErrInvalidSlot = errors.New("invalid save-state slot")

// ScreenshotTimeFormat is the timestamp layout used in screenshot names.
const ScreenshotTimeFormat = "20060102150405"

// Slot describes one save-state slot.
type Slot struct {
	Number    int
	Path      string
	Populated bool
	SavedAt   time.Time
}

// StatePath returns the save-state file for slot of the ROM with slug.
func (s *Store) StatePath(slug string, slot int) (string, error) {
	if slot < 1 || slot > Slots {
		return "", fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidSlot, slot, Slots)
	}
	dir, err := resolve(s.layout.States, slug)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("savestate_%d.state", slot)), nil
}

// Slots reports the state of every save slot for slug.
func (s *Store) Slots(slug string) ([]Slot, error) {
	slots := make([]Slot, 0, Slots)
	for n := 1; n <= Slots; n++ {
		path, err := s.StatePath(slug, n)
		if err != nil {
			return nil, err
		}
		slot := Slot{Number: n, Path: path}
		if info, err := os.Stat(path); err == nil {
			slot.Populated = true
			slot.SavedAt = info.ModTime()
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ScreenshotPath returns the screenshot file for a capture taken at t. Two
// captures in the same second share a path.
func (s *Store) ScreenshotPath(t time.Time) string {
	return filepath.Join(s.layout.Screenshots, "screenshot_"+t.Format(ScreenshotTimeFormat)+".png")
}

// PruneScreenshots deletes the oldest screenshots so that at most keep
// remain, and returns how many were removed.
func (s *Store) PruneScreenshots(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("%w: keep must not be negative", ErrInvalidInput)
	}

	shots, err := media.NewIndex(s.layout.Screenshots, s.layout.Recordings).Screenshots()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if len(shots) <= keep {
		return 0, nil
	}

	removed := 0
	for _, shot := range shots[:len(shots)-keep] {
		path := filepath.Join(s.layout.Screenshots, shot.Filename)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to remove screenshot", "path", path, "error", err)
			continue
		}
		removed++
	}
	slog.Info("Screenshots pruned", "removed", removed, "kept", len(shots)-removed)
	return removed, nil
}
