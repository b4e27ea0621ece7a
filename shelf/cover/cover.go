// Package cover renders cover thumbnails by running a ROM headless for a
// fixed number of frames and saving what is on screen.
package cover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/media"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

// DefaultWarmupFrames is enough for title screens of every tested ROM to
// appear. It is a heuristic.
const DefaultWarmupFrames = 800

var ErrCoverGenerationFailed = errors.New("cover generation failed")

// Paths resolves where the cover for a slug is written.
type Paths interface {
	CoverPath(slug string) string
}

type Generator struct {
	factory      engine.Factory
	paths        Paths
	warmupFrames int
}

// NewGenerator returns a generator. A non-positive warmupFrames selects
// DefaultWarmupFrames.
func NewGenerator(factory engine.Factory, paths Paths, warmupFrames int) *Generator {
	if warmupFrames <= 0 {
		warmupFrames = DefaultWarmupFrames
	}
	return &Generator{factory: factory, paths: paths, warmupFrames: warmupFrames}
}

// Generate boots romPath headless, runs the warm-up frames and writes the
// current frame as the ROM's cover. The engine is stopped on every path.
func (g *Generator) Generate(romPath string) (coverPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			coverPath = ""
			err = fmt.Errorf("%w: %s: engine panicked: %v", ErrCoverGenerationFailed, romPath, r)
		}
	}()

	start := time.Now()
	e, err := g.factory.Boot(romPath, engine.Options{Headless: true})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCoverGenerationFailed, err)
	}
	defer release(e, romPath)

	for i := 0; i < g.warmupFrames; i++ {
		if !e.Tick() {
			return "", fmt.Errorf("%w: %s: engine stopped after %d of %d frames",
				ErrCoverGenerationFailed, romPath, i, g.warmupFrames)
		}
	}

	frame := e.Frame()
	if frame == nil {
		return "", fmt.Errorf("%w: %s: engine produced no frame", ErrCoverGenerationFailed, romPath)
	}

	coverPath = g.paths.CoverPath(media.Slug(romPath))
	if err := video.SavePNG(frame, coverPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCoverGenerationFailed, err)
	}

	slog.Info("Cover generated", "rom", romPath, "path", coverPath, "frames", g.warmupFrames, "elapsed", time.Since(start))
	return coverPath, nil
}

func release(e engine.Engine, romPath string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Engine panicked while stopping", "rom", romPath, "panic", r)
		}
	}()
	if err := e.Stop(false); err != nil {
		slog.Warn("Failed to stop headless engine", "rom", romPath, "error", err)
	}
}

// Result is the outcome of one cover in GenerateAll.
type Result struct {
	ROM   string
	Cover string
	Err   error
}

// GenerateAll generates covers for every ROM, at most jobs at a time. A
// failed cover doesn't stop the others; cancelling ctx stops scheduling new
// ones and marks them with ctx.Err().
func (g *Generator) GenerateAll(ctx context.Context, romPaths []string, jobs int) []Result {
	if jobs <= 0 {
		jobs = 1
	}

	results := make([]Result, len(romPaths))
	var group errgroup.Group
	group.SetLimit(jobs)

	for i, romPath := range romPaths {
		results[i].ROM = romPath
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Cover, results[i].Err = g.Generate(romPath)
			return nil
		})
	}
	_ = group.Wait()
	return results
}
