package terminal

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

const (
	minTermWidth  = 80
	minTermHeight = 24
	logCapacity   = 100
)

// Surface renders frames with half-block characters, two pixel rows per
// terminal row, and shows recent log lines to the right of the screen.
// Only one Surface may be open per process: it owns the tty and the default
// logger until Close.
type Surface struct {
	screen    tcell.Screen
	cfg       display.Config
	logBuffer *LogBuffer
	logLevel  *slog.LevelVar
	prevLog   *slog.Logger
	signals   chan os.Signal
	open      bool
	closed    bool
}

// Open creates a surface on the controlling terminal.
func Open(cfg display.Config) (display.Surface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}
	s, err := NewWithScreen(screen, cfg)
	if err != nil {
		return nil, err
	}

	s.signals = make(chan os.Signal, 1)
	signal.Notify(s.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	return s, nil
}

// NewWithScreen initializes screen and redirects the default logger into
// the surface's log panel until Close.
func NewWithScreen(screen tcell.Screen, cfg display.Config) (*Surface, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %v", err)
	}

	s := &Surface{
		screen:    screen,
		cfg:       cfg,
		logBuffer: NewLogBuffer(logCapacity),
		logLevel:  new(slog.LevelVar),
		prevLog:   slog.Default(),
		open:      true,
	}
	slog.SetDefault(slog.New(NewLogHandler(s.logBuffer, s.logLevel)))

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	slog.Info("Terminal surface initialized", "title", cfg.Title)
	return s, nil
}

func (s *Surface) Present(frame image.Image) error {
	if s.closed {
		return fmt.Errorf("terminal surface closed")
	}

	termWidth, termHeight := s.screen.Size()
	s.screen.Clear()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		s.drawText(0, termHeight/2, msg, tcell.StyleDefault.Foreground(tcell.ColorRed), termWidth)
		s.screen.Show()
		return nil
	}

	gameWidth := video.FramebufferWidth
	if frame != nil {
		gameWidth = frame.Bounds().Dx()
	}
	dividerX := gameWidth + 1

	s.drawBorders(termWidth, termHeight, dividerX)
	if frame != nil {
		s.drawFrame(frame)
	}
	s.drawLogs(dividerX+2, 1, termWidth-dividerX-2, termHeight)
	s.screen.Show()
	return nil
}

func (s *Surface) Poll() ([]display.Command, bool) {
	var cmds []display.Command

	for s.screen.HasPendingEvent() {
		switch ev := s.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if cmd, ok := s.commandForKey(ev); ok {
				if cmd.Kind == display.Quit {
					s.open = false
				}
				cmds = append(cmds, cmd)
			}
		case *tcell.EventResize:
			s.screen.Sync()
		}
	}

	select {
	case sig := <-s.signals:
		slog.Info("Received signal, closing", "signal", sig)
		s.open = false
	default:
	}

	return cmds, s.open
}

// Close restores the terminal and the previous default logger. It is safe
// to call more than once.
func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.open = false

	if s.signals != nil {
		signal.Stop(s.signals)
	}
	slog.SetDefault(s.prevLog)
	s.screen.Fini()
	return nil
}

// Logs exposes the log panel contents.
func (s *Surface) Logs() *LogBuffer {
	return s.logBuffer
}

var specialKeyNames = map[tcell.Key]string{
	tcell.KeyEscape: "Escape",
	tcell.KeyF1:     "F1",
	tcell.KeyF2:     "F2",
	tcell.KeyF3:     "F3",
}

func (s *Surface) commandForKey(ev *tcell.EventKey) (display.Command, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return display.Command{Kind: display.Quit}, true
	case tcell.KeyRune:
		r := unicode.ToLower(ev.Rune())
		switch r {
		case '+', '=':
			s.changeLogLevel(-4)
			return display.Command{}, false
		case '-', '_':
			s.changeLogLevel(4)
			return display.Command{}, false
		case ' ':
			return display.CommandForKey("Space")
		}
		return display.CommandForKey(string(r))
	}

	if name, ok := specialKeyNames[ev.Key()]; ok {
		return display.CommandForKey(name)
	}
	return display.Command{}, false
}

// changeLogLevel moves the panel filter by delta, within Debug..Error.
func (s *Surface) changeLogLevel(delta slog.Level) {
	old := s.logLevel.Level()
	next := old + delta
	if next < slog.LevelDebug || next > slog.LevelError {
		return
	}
	s.logLevel.Set(next)
	slog.Warn("Log filter changed", "from", old, "to", next)
}

func (s *Surface) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight-1; y++ {
		s.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	s.drawText(1, 0, " "+s.cfg.Title+" ", titleStyle, dividerX-1)
	s.drawText(dividerX+2, 0, " Logs (-/+ filter) ", titleStyle, termWidth-dividerX-2)
	s.drawText(0, termHeight-1, " "+display.HelpText+" ", borderStyle, termWidth)
}

func (s *Surface) drawFrame(frame image.Image) {
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			topShade := video.Shade(frame.At(x, y))
			bottomShade := 3
			if y+1 < b.Max.Y {
				bottomShade = video.Shade(frame.At(x, y+1))
			}

			char, fg, bg := halfBlock(topShade, bottomShade)
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			s.screen.SetContent(x-b.Min.X, (y-b.Min.Y)/2+1, char, nil, style)
		}
	}
}

var shadeColors = [4]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorGray,
	tcell.ColorSilver,
	tcell.ColorWhite,
}

// halfBlock draws the top pixel as the upper half block's foreground and
// the bottom pixel as its background.
func halfBlock(topShade, bottomShade int) (rune, tcell.Color, tcell.Color) {
	if topShade == bottomShade {
		return '█', shadeColors[topShade], tcell.ColorDefault
	}
	return '▀', shadeColors[topShade], shadeColors[bottomShade]
}

func (s *Surface) drawLogs(startX, startY, width, termHeight int) {
	availableHeight := termHeight - startY - 1
	if width <= 0 || availableHeight <= 0 {
		return
	}

	for i, entry := range s.logBuffer.Recent(availableHeight) {
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch {
		case entry.Level >= slog.LevelError:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		case entry.Level >= slog.LevelWarn:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		case entry.Level < slog.LevelInfo:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}

		text := FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		s.drawText(startX, startY+i, text, style, width)
	}
}

func (s *Surface) drawText(x, y int, text string, style tcell.Style, maxWidth int) {
	i := 0
	for _, ch := range text {
		if i >= maxWidth {
			return
		}
		s.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}

var _ display.Surface = (*Surface)(nil)
