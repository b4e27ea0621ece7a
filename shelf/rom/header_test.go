package rom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-shelf/shelf/rom"
	"github.com/valerio/jeebie-shelf/shelf/rom/romtest"
)

func TestParseHeader(t *testing.T) {
	t.Run("valid image", func(t *testing.T) {
		h, err := rom.ParseHeader(romtest.Image("TETRIS"))
		require.NoError(t, err)
		assert.Equal(t, "TETRIS", h.Title)
		assert.False(t, h.SupportsColor())
	})

	t.Run("color flag", func(t *testing.T) {
		h, err := rom.ParseHeader(romtest.ColorImage("POKEMON"))
		require.NoError(t, err)
		assert.True(t, h.SupportsColor())
	})

	t.Run("too short", func(t *testing.T) {
		_, err := rom.ParseHeader(make([]byte, 0x100))
		assert.ErrorIs(t, err, rom.ErrTooShort)
	})

	t.Run("bad checksum", func(t *testing.T) {
		h, err := rom.ParseHeader(romtest.Corrupt("ZELDA"))
		assert.ErrorIs(t, err, rom.ErrHeaderChecksum)
		assert.Equal(t, "ZELDA", h.Title)
	})

	t.Run("blank title", func(t *testing.T) {
		h, err := rom.ParseHeader(romtest.Image(""))
		require.NoError(t, err)
		assert.Equal(t, "(Untitled)", h.Title)
	})
}

func TestCleanTitleReplacesNonPrintable(t *testing.T) {
	data := romtest.Image("AB")
	data[0x136] = 0x07
	data[0x137] = 'C'
	data[0x14D] = rom.HeaderChecksum(data)

	h, err := rom.ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, "AB?C", h.Title)
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Tetris.gb", true},
		{"Pokemon Gold.gbc", true},
		{"LOUD.GB", true},
		{"notes.txt", false},
		{"game.gba", false},
		{"gb", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rom.Allowed(tt.name))
		})
	}
}

func TestIsColorAndBaseName(t *testing.T) {
	assert.True(t, rom.IsColor("Crystal.GBC"))
	assert.False(t, rom.IsColor("Tetris.gb"))
	assert.Equal(t, "Mario (US)", rom.BaseName("/tmp/roms/Mario (US).gb"))
}
