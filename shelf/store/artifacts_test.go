package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatePath(t *testing.T) {
	s := newTestStore(t)

	path, err := s.StatePath("Tetris", 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Layout().States, "Tetris", "savestate_2.state"), path)

	for _, slot := range []int{0, 4, -1} {
		_, err := s.StatePath("Tetris", slot)
		assert.ErrorIs(t, err, ErrInvalidSlot, "slot %d", slot)
	}

	_, err = s.StatePath("..", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSlots(t *testing.T) {
	s := newTestStore(t)
	path, err := s.StatePath("Tetris", 3)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("state"), 0o644))

	slots, err := s.Slots("Tetris")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.False(t, slots[0].Populated)
	assert.False(t, slots[1].Populated)
	assert.True(t, slots[2].Populated)
	assert.Equal(t, 3, slots[2].Number)
}

func TestScreenshotPath(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)

	assert.Equal(t,
		filepath.Join(s.Layout().Screenshots, "screenshot_20250314150926.png"),
		s.ScreenshotPath(at))
}

func TestPruneScreenshots(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		path := s.ScreenshotPath(base.Add(time.Duration(i) * time.Minute))
		require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	}

	removed, err := s.PruneScreenshots(2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{
		"screenshot_20250101000300.png",
		"screenshot_20250101000400.png",
	}, dirNames(t, s.Layout().Screenshots))

	removed, err = s.PruneScreenshots(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
