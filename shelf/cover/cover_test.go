package cover

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/engine/enginetest"
	"github.com/valerio/jeebie-shelf/shelf/engine/testpattern"
	"github.com/valerio/jeebie-shelf/shelf/rom/romtest"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

type dirPaths string

func (d dirPaths) CoverPath(slug string) string {
	return filepath.Join(string(d), slug+".png")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	factory := &enginetest.Factory{}
	g := NewGenerator(factory, dirPaths(dir), 0)

	path, err := g.Generate("/roms/Mario (US).gb")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Mario__US_.png"), path)

	engines := factory.Engines()
	require.Len(t, engines, 1)
	assert.Equal(t, DefaultWarmupFrames, engines[0].Ticks())
	assert.Equal(t, []bool{false}, engines[0].Stops())
	assert.Equal(t, []engine.Options{{Headless: true}}, factory.Options())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// 800 = 0b1100100000: bits 5, 8 and 9 are set
	assert.Equal(t, 0, video.Shade(img.At(5, 0)))
	assert.Equal(t, 3, video.Shade(img.At(6, 0)))
}

func TestGenerateWithTestPatternEngine(t *testing.T) {
	romDir := t.TempDir()
	romPath := filepath.Join(romDir, "Tetris.gb")
	require.NoError(t, os.WriteFile(romPath, romtest.Image("TETRIS"), 0o644))

	coverDir := t.TempDir()
	path, err := NewGenerator(testpattern.Factory, dirPaths(coverDir), 0).Generate(romPath)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		factory *enginetest.Factory
		stops   bool
	}{
		{
			name:    "boot error",
			factory: &enginetest.Factory{Err: errors.New("corrupt rom")},
		},
		{
			name:    "boot panic",
			factory: &enginetest.Factory{Panic: "kaboom"},
		},
		{
			name: "engine stops during warm-up",
			factory: &enginetest.Factory{New: func(string) *enginetest.Engine {
				return &enginetest.Engine{FailAfter: 10}
			}},
			stops: true,
		},
		{
			name: "engine panics during warm-up",
			factory: &enginetest.Factory{New: func(string) *enginetest.Engine {
				return &enginetest.Engine{PanicAfter: 10}
			}},
			stops: true,
		},
		{
			name: "no frame",
			factory: &enginetest.Factory{New: func(string) *enginetest.Engine {
				return &enginetest.Engine{NoFrame: true}
			}},
			stops: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			g := NewGenerator(tt.factory, dirPaths(dir), 50)

			path, err := g.Generate("Tetris.gb")
			assert.ErrorIs(t, err, ErrCoverGenerationFailed)
			assert.Empty(t, path)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)

			if tt.stops {
				engines := tt.factory.Engines()
				require.Len(t, engines, 1)
				assert.Equal(t, []bool{false}, engines[0].Stops(), "engine must be released")
			}
		})
	}
}

func TestGenerateCorruptROM(t *testing.T) {
	romPath := filepath.Join(t.TempDir(), "Broken.gb")
	require.NoError(t, os.WriteFile(romPath, romtest.Corrupt("BROKEN"), 0o644))

	_, err := NewGenerator(testpattern.Factory, dirPaths(t.TempDir()), 0).Generate(romPath)
	assert.ErrorIs(t, err, ErrCoverGenerationFailed)
}

// "Game (1).gb" and "Game_1_.gb" share a slug: the second cover replaces
// the first.
func TestGenerateSlugCollision(t *testing.T) {
	dir := t.TempDir()
	factory := &enginetest.Factory{}
	first := NewGenerator(factory, dirPaths(dir), 3)
	second := NewGenerator(factory, dirPaths(dir), 4)

	p1, err := first.Generate("Game (1).gb")
	require.NoError(t, err)
	p2, err := second.Generate("Game_1_.gb")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	f, err := os.Open(p2)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// frame 4 (0b100) comes from the second ROM
	assert.Equal(t, 0, video.Shade(img.At(2, 0)))
	assert.Equal(t, 3, video.Shade(img.At(0, 0)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	factory := &enginetest.Factory{New: func(romPath string) *enginetest.Engine {
		if filepath.Base(romPath) == "bad.gb" {
			return &enginetest.Engine{FailAfter: 1}
		}
		return &enginetest.Engine{}
	}}
	g := NewGenerator(factory, dirPaths(dir), 5)

	roms := make([]string, 0, 9)
	for i := 0; i < 8; i++ {
		roms = append(roms, fmt.Sprintf("rom%d.gb", i))
	}
	roms = append(roms, "bad.gb")

	results := g.GenerateAll(context.Background(), roms, 3)
	require.Len(t, results, len(roms))
	for i, r := range results {
		assert.Equal(t, roms[i], r.ROM)
		if r.ROM == "bad.gb" {
			assert.ErrorIs(t, r.Err, ErrCoverGenerationFailed)
			continue
		}
		assert.NoError(t, r.Err)
		assert.FileExists(t, r.Cover)
	}
}

func TestGenerateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	factory := &enginetest.Factory{}
	results := NewGenerator(factory, dirPaths(t.TempDir()), 5).GenerateAll(ctx, []string{"a.gb", "b.gb"}, 2)

	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Empty(t, factory.Booted())
}
