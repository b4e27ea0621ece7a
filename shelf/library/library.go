// Package library is the ROM shelf as the web API and CLI see it: the
// artifact store, cover generation, media matching and session launching
// behind one set of operations.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/valerio/jeebie-shelf/shelf/archive"
	"github.com/valerio/jeebie-shelf/shelf/cover"
	"github.com/valerio/jeebie-shelf/shelf/fileio"
	"github.com/valerio/jeebie-shelf/shelf/launcher"
	"github.com/valerio/jeebie-shelf/shelf/media"
	"github.com/valerio/jeebie-shelf/shelf/rom"
	"github.com/valerio/jeebie-shelf/shelf/store"
)

// URL prefixes the static routes serve media under.
const (
	CoversURL      = "/covers/"
	ScreenshotsURL = "/screenshots/"
	RecordingsURL  = "/recordings/"
)

// Item is one ROM as listed, with everything that belongs to it.
type Item struct {
	store.RomEntry
	// CoverURL is empty when the ROM has no cover.
	CoverURL    string
	Screenshots []string
	Recordings  []string
}

type Library struct {
	store    *store.Store
	covers   *cover.Generator
	index    *media.Index
	launcher *launcher.Launcher
}

func New(st *store.Store, covers *cover.Generator, l *launcher.Launcher) *Library {
	layout := st.Layout()
	return &Library{
		store:    st,
		covers:   covers,
		index:    media.NewIndex(layout.Screenshots, layout.Recordings),
		launcher: l,
	}
}

func (l *Library) Store() *store.Store {
	return l.store
}

// CoverURL is the URL the cover for slug is served under.
func CoverURL(slug string) string {
	return CoversURL + url.PathEscape(slug+".png")
}

// Upload stores a ROM and tries to generate its cover. A failed cover is
// logged and reported as an empty URL; the upload itself still succeeds.
func (l *Library) Upload(filename string, r io.Reader) (store.RomEntry, string, error) {
	entry, err := l.store.Save(filename, r)
	if err != nil {
		return store.RomEntry{}, "", err
	}
	return l.withCover(entry)
}

func (l *Library) withCover(entry store.RomEntry) (store.RomEntry, string, error) {
	romPath, err := l.store.ROMPath(entry.Filename)
	if err != nil {
		return store.RomEntry{}, "", err
	}
	if _, err := l.covers.Generate(romPath); err != nil {
		slog.Warn("Cover generation failed", "rom", entry.Filename, "error", err)
		return entry, "", nil
	}
	entry.HasCover = true
	return entry, CoverURL(entry.Slug), nil
}

// List returns every stored ROM with its cover URL and matched media.
func (l *Library) List() ([]Item, error) {
	entries, err := l.store.List()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		item := Item{RomEntry: e, Screenshots: []string{}, Recordings: []string{}}
		if e.HasCover {
			item.CoverURL = CoverURL(e.Slug)
		}
		m, err := l.index.Match(e.Filename)
		if err != nil {
			slog.Warn("Failed to match media", "rom", e.Filename, "error", err)
		} else {
			item.Screenshots = append(item.Screenshots, m.Screenshots...)
			item.Recordings = append(item.Recordings, m.Recordings...)
		}
		items = append(items, item)
	}
	return items, nil
}

// Delete removes a ROM and its cover. It fails with store.ErrNotFound when
// no such ROM is stored.
func (l *Library) Delete(filename string) error {
	return l.store.Delete(filename)
}

// Play launches a session for a stored ROM and returns as soon as it is
// scheduled.
func (l *Library) Play(filename string) (launcher.Ticket, error) {
	romPath, err := l.store.ROMPath(filename)
	if err != nil {
		return launcher.Ticket{}, err
	}
	if !l.store.Exists(filename) {
		return launcher.Ticket{}, fmt.Errorf("%w: %s", store.ErrNotFound, filename)
	}
	return l.launcher.Launch(romPath), nil
}

// Sessions lists the sessions still running.
func (l *Library) Sessions() []launcher.Ticket {
	return l.launcher.Active()
}

// Imported reports one ROM brought in by Import.
type Imported struct {
	Source   string
	Filename string
	CoverURL string
	Err      error
}

// Import stores ROM files and every ROM inside .zip, .7z and .rar
// archives, generating covers as it goes. A bad source is reported in the
// results and the rest still run.
func (l *Library) Import(paths []string) []Imported {
	var results []Imported
	for _, src := range paths {
		switch {
		case archive.Supported(src):
			n, err := archive.Extract(src, func(name string, r io.Reader) error {
				results = append(results, l.importOne(src, name, r))
				return nil
			})
			if err != nil {
				results = append(results, Imported{Source: src, Err: err})
			} else if n == 0 {
				slog.Warn("Archive holds no ROMs", "archive", src)
			}
		case rom.Allowed(src):
			results = append(results, l.importFile(src))
		default:
			results = append(results, Imported{
				Source: src,
				Err:    fmt.Errorf("%w: %s is neither a ROM nor a supported archive", store.ErrInvalidInput, filepath.Base(src)),
			})
		}
	}
	return results
}

func (l *Library) importFile(src string) Imported {
	f, err := os.Open(src)
	if err != nil {
		return Imported{Source: src, Err: fmt.Errorf("failed to open %s: %w", src, err)}
	}
	defer fileio.Close(f, "failed to close imported ROM")
	return l.importOne(src, filepath.Base(src), f)
}

func (l *Library) importOne(src, name string, r io.Reader) Imported {
	res := Imported{Source: src, Filename: name}
	entry, err := l.store.Save(name, r)
	if err != nil {
		res.Err = err
		return res
	}
	_, res.CoverURL, res.Err = l.withCover(entry)
	slog.Info("ROM imported", "source", src, "filename", name, "cover", res.CoverURL != "")
	return res
}

// RegenerateCovers rebuilds covers for the stored ROMs, jobs at a time.
// With missingOnly set, ROMs that already have a cover are skipped.
func (l *Library) RegenerateCovers(ctx context.Context, missingOnly bool, jobs int) ([]cover.Result, error) {
	entries, err := l.store.List()
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if missingOnly && e.HasCover {
			continue
		}
		p, err := l.store.ROMPath(e.Filename)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}

	results := l.covers.GenerateAll(ctx, paths, jobs)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if !errors.Is(r.Err, context.Canceled) {
				slog.Warn("Cover generation failed", "rom", r.ROM, "error", r.Err)
			}
		}
	}
	slog.Info("Covers regenerated", "total", len(results), "failed", failed)
	return results, nil
}
