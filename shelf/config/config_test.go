package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	want := Session{WindowScale: 4, TargetFPS: 60, Fullscreen: false, Volume: 0.7}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOrDefault(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Session
	}{
		{
			name:    "full file",
			content: "window_scale = 2\ntarget_fps = 30\nfullscreen = true\nvolume = 0.25\n",
			want:    Session{WindowScale: 2, TargetFPS: 30, Fullscreen: true, Volume: 0.25},
		},
		{
			name:    "partial file keeps defaults",
			content: "fullscreen = true\n",
			want:    Session{WindowScale: 4, TargetFPS: 60, Fullscreen: true, Volume: 0.7},
		},
		{
			name:    "malformed file",
			content: "window_scale = = 3\n[[",
			want:    Default(),
		},
		{
			name:    "wrong type",
			content: "target_fps = \"fast\"\n",
			want:    Default(),
		},
		{
			name:    "out of range values",
			content: "window_scale = 0\ntarget_fps = -5\nvolume = 1.5\n",
			want:    Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), Filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got := NewStore(path).LoadOrDefault()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadOrDefault() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), Filename))

	_, err := store.Load()
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, Default(), store.LoadOrDefault())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", Filename)
	store := NewStore(path)
	cfg := Session{WindowScale: 3, TargetFPS: 50, Fullscreen: true, Volume: 0.5}

	require.NoError(t, store.Save(cfg))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	err := NewStore(path).Save(Session{WindowScale: -1, TargetFPS: 60, Volume: 0.5})
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}
