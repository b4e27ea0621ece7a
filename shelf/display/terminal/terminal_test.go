package terminal

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

func newSimSurface(t *testing.T) (*Surface, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("")
	s, err := NewWithScreen(sim, display.Config{Title: "Tetris"})
	require.NoError(t, err)
	sim.SetSize(200, 80)
	t.Cleanup(func() { _ = s.Close() })
	return s, sim
}

func TestPollTranslatesHotkeys(t *testing.T) {
	s, sim := newSimSurface(t)

	sim.InjectKey(tcell.KeyRune, 'p', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'F', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, '2', tcell.ModNone)
	sim.InjectKey(tcell.KeyF3, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)

	var cmds []display.Command
	require.Eventually(t, func() bool {
		got, _ := s.Poll()
		cmds = append(cmds, got...)
		return len(cmds) >= 4
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []display.Command{
		{Kind: display.TogglePause},
		{Kind: display.Screenshot},
		{Kind: display.SaveState, Slot: 2},
		{Kind: display.LoadState, Slot: 3},
	}, cmds)
}

func TestPollEscapeCloses(t *testing.T) {
	s, sim := newSimSurface(t)

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	require.Eventually(t, func() bool {
		_, open := s.Poll()
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestPresentDrawsFrame(t *testing.T) {
	s, sim := newSimSurface(t)
	fb := video.NewFrameBuffer()
	fb.SetPixel(0, 0, video.BlackColor)
	fb.SetPixel(0, 1, video.BlackColor)
	fb.SetPixel(1, 0, video.BlackColor)

	require.NoError(t, s.Present(fb.Image()))

	cells, width, _ := sim.GetContents()
	full := cells[1*width+0]
	assert.Equal(t, []rune{'█'}, full.Runes)
	split := cells[1*width+1]
	assert.Equal(t, []rune{'▀'}, split.Runes)
}

func TestPresentTooSmall(t *testing.T) {
	s, sim := newSimSurface(t)
	sim.SetSize(40, 10)

	assert.NoError(t, s.Present(video.NewFrameBuffer().Image()))
}

func TestLogsAreCapturedUntilClose(t *testing.T) {
	before := slog.Default()
	s, _ := newSimSurface(t)

	slog.Info("inside session", "frame", 42)
	recent := s.Logs().Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "inside session frame=42", recent[0].Message)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Same(t, before, slog.Default())
	assert.Error(t, s.Present(nil))
}

func TestLogBufferWraps(t *testing.T) {
	lb := NewLogBuffer(2)
	for _, msg := range []string{"a", "b", "c"} {
		lb.Add(LogEntry{Message: msg})
	}

	recent := lb.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Message)
	assert.Equal(t, "b", recent[1].Message)
}
