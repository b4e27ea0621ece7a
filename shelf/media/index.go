package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
)

var (
	ScreenshotExtensions = []string{".png", ".jpg", ".jpeg"}
	RecordingExtensions  = []string{".gif", ".mp4", ".avi", ".webm"}
)

// captureTimestamp finds a YYYYMMDDHHMMSS stamp embedded in a capture name,
// optionally split into date and time by an underscore.
var captureTimestamp = regexp.MustCompile(`(\d{8})_?(\d{6})`)

// Matches are the capture filenames associated with one ROM.
type Matches struct {
	Screenshots []string
	Recordings  []string
}

// Artifact is a screenshot or recording file.
type Artifact struct {
	Filename   string
	CapturedAt time.Time
}

// Index associates screenshots and recordings with ROMs by name. Nothing is
// cached: every call reads the directories again.
type Index struct {
	screenshotsDir string
	recordingsDir  string
}

func NewIndex(screenshotsDir, recordingsDir string) *Index {
	return &Index{screenshotsDir: screenshotsDir, recordingsDir: recordingsDir}
}

// Match returns the captures whose keys match the ROM's key, sorted.
func (ix *Index) Match(romFilename string) (Matches, error) {
	romKey := Key(romFilename)

	shots, err := matchDir(ix.screenshotsDir, ScreenshotExtensions, romKey)
	if err != nil {
		return Matches{}, err
	}
	recs, err := matchDir(ix.recordingsDir, RecordingExtensions, romKey)
	if err != nil {
		return Matches{}, err
	}
	return Matches{Screenshots: shots, Recordings: recs}, nil
}

// Screenshots lists every screenshot, oldest first.
func (ix *Index) Screenshots() ([]Artifact, error) {
	return listArtifacts(ix.screenshotsDir, ScreenshotExtensions)
}

// Recordings lists every recording, oldest first.
func (ix *Index) Recordings() ([]Artifact, error) {
	return listArtifacts(ix.recordingsDir, RecordingExtensions)
}

func matchDir(dir string, exts []string, romKey string) ([]string, error) {
	names, err := candidates(dir, exts)
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0)
	for _, name := range names {
		if KeysMatch(romKey, Key(name)) {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

// candidates lists regular files in dir with one of exts. A missing
// directory has no candidates.
func candidates(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func listArtifacts(dir string, exts []string) ([]Artifact, error) {
	names, err := candidates(dir, exts)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(names))
	for _, name := range names {
		at, ok := CapturedAt(name)
		if !ok {
			info, err := os.Stat(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			at = info.ModTime()
		}
		artifacts = append(artifacts, Artifact{Filename: name, CapturedAt: at})
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		if artifacts[i].CapturedAt.Equal(artifacts[j].CapturedAt) {
			return artifacts[i].Filename < artifacts[j].Filename
		}
		return artifacts[i].CapturedAt.Before(artifacts[j].CapturedAt)
	})
	return artifacts, nil
}

// CapturedAt extracts the local timestamp embedded in a capture filename.
func CapturedAt(filename string) (time.Time, bool) {
	m := captureTimestamp.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, false
	}
	at, err := time.ParseInLocation("20060102150405", m[1]+m[2], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
