package testpattern

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/rom/romtest"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

func writeROM(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func bootROM(t *testing.T, title string) *Engine {
	t.Helper()
	e, err := Boot(writeROM(t, title+".gb", romtest.Image(title)), engine.Options{Headless: true})
	require.NoError(t, err)
	return e.(*Engine)
}

func TestBootFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.gb") }},
		{"truncated", func(t *testing.T) string { return writeROM(t, "short.gb", []byte("abc")) }},
		{"bad checksum", func(t *testing.T) string { return writeROM(t, "bad.gb", romtest.Corrupt("BAD")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Factory.Boot(tt.path(t), engine.Options{Headless: true})
			assert.ErrorIs(t, err, engine.ErrBootFailed)
		})
	}
}

func TestTickAdvancesPastBoot(t *testing.T) {
	e := bootROM(t, "TETRIS")

	bootFrame := e.Frame()
	for i := 0; i < BootFrames+1; i++ {
		require.True(t, e.Tick())
	}
	assert.Equal(t, uint64(BootFrames+1), e.FrameCount())
	assert.NotEqual(t, bootFrame, e.Frame())
}

func TestSetSpeed(t *testing.T) {
	e := bootROM(t, "TETRIS")

	e.SetSpeed(2)
	e.Tick()
	assert.Equal(t, uint64(2), e.FrameCount())

	e.SetSpeed(0.5)
	e.Tick()
	e.Tick()
	assert.Equal(t, uint64(3), e.FrameCount())

	e.SetSpeed(0)
	e.Tick()
	assert.Equal(t, uint64(4), e.FrameCount())
}

func TestStateRoundTrip(t *testing.T) {
	e := bootROM(t, "TETRIS")
	for i := 0; i < 300; i++ {
		e.Tick()
	}

	var saved bytes.Buffer
	require.NoError(t, e.SaveState(&saved))
	want := e.Frame()

	for i := 0; i < 500; i++ {
		e.Tick()
	}
	require.NoError(t, e.LoadState(bytes.NewReader(saved.Bytes())))

	assert.Equal(t, uint64(300), e.FrameCount())
	assert.Equal(t, want, e.Frame())

	var again bytes.Buffer
	require.NoError(t, e.SaveState(&again))
	assert.Equal(t, saved.Bytes(), again.Bytes())
}

func TestLoadStateRejectsOtherROM(t *testing.T) {
	tetris := bootROM(t, "TETRIS")
	zelda := bootROM(t, "ZELDA")

	var buf bytes.Buffer
	require.NoError(t, tetris.SaveState(&buf))

	assert.Error(t, zelda.LoadState(&buf))
	assert.Error(t, zelda.LoadState(bytes.NewReader([]byte("garbage"))))
}

func TestStop(t *testing.T) {
	e := bootROM(t, "TETRIS")

	require.NoError(t, e.Stop(false))
	require.NoError(t, e.Stop(true))

	assert.False(t, e.Tick())
	assert.ErrorIs(t, e.SaveState(&bytes.Buffer{}), engine.ErrStopped)
	assert.ErrorIs(t, e.LoadState(&bytes.Buffer{}), engine.ErrStopped)
}

func TestPatternsUsePalette(t *testing.T) {
	for p := 0; p < PatternCount; p++ {
		for _, xy := range [][2]int{{0, 0}, {17, 33}, {159, 143}} {
			c := patternPixel(p, xy[0], xy[1], 3)
			assert.Contains(t, video.Palette[:], c)
		}
	}
}
