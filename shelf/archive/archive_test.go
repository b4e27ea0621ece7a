package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-shelf/shelf/rom/romtest"
)

func writeZip(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, data := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func collect(t *testing.T, path string) (map[string][]byte, int, error) {
	t.Helper()
	got := map[string][]byte{}
	n, err := Extract(path, func(name string, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		got[name] = data
		return nil
	})
	return got, n, err
}

func TestExtractZip(t *testing.T) {
	tetris := romtest.Image("TETRIS")
	zelda := romtest.ColorImage("ZELDA DX")
	path := writeZip(t, map[string][]byte{
		"Tetris.gb":               tetris,
		"color/Zelda DX.GBC":      zelda,
		"readme.txt":              []byte("not a rom"),
		"nested/deeper/cover.png": {0x89, 'P', 'N', 'G'},
	})

	got, n, err := collect(t, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	want := map[string][]byte{"Tetris.gb": tetris, "Zelda DX.GBC": zelda}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extracted files mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFixtures(t *testing.T) {
	want := map[string][]byte{
		"Tetris.gb": []byte("TETRIS ROM DATA\n"),
		"Zelda.gbc": []byte("ZELDA DX ROM DATA\n"),
	}

	for _, name := range []string{"collection.7z", "collection.rar"} {
		t.Run(name, func(t *testing.T) {
			got, n, err := collect(t, filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("extracted files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractZipStripsTraversal(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"../../escape.gb":      {1},
		`..\windows\escape.gb`: {2},
	})

	got, _, err := collect(t, path)
	require.NoError(t, err)
	for name := range got {
		assert.Equal(t, filepath.Base(name), name)
		assert.NotContains(t, name, "..")
	}
}

func TestExtractStopsOnCallbackError(t *testing.T) {
	path := writeZip(t, map[string][]byte{"a.gb": {1}, "b.gb": {2}})
	boom := errors.New("disk full")

	n, err := Extract(path, func(string, io.Reader) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := []byte("definitely not an archive")
	for _, name := range []string{"bad.zip", "bad.7z", "bad.rar"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), garbage, 0o644))
	}

	tests := []struct {
		name        string
		unsupported bool
	}{
		{"bad.zip", false},
		{"bad.7z", false},
		{"bad.rar", false},
		{"roms.tar", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := collect(t, filepath.Join(dir, tt.name))
			require.Error(t, err)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("set.ZIP"))
	assert.True(t, Supported("set.7z"))
	assert.True(t, Supported("set.rar"))
	assert.False(t, Supported("Tetris.gb"))
	assert.False(t, Supported("set.tar.gz"))
}
