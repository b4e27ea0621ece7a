// Package testpattern is a stand-in engine that validates the cartridge
// header and renders animated test patterns instead of running game code.
// It boots with a short logo scroll, like the DMG boot ROM, before the
// pattern picked from the header checksum takes over.
package testpattern

import (
	"encoding/gob"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/rom"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

const (
	PatternCount       = 4
	BootFrames         = 120
	TileSize           = 8
	StripeWidth        = 4
	AnimationFrames    = 30
	StripeSpeed        = 2
	DiagonalSpeed      = 4
	logoHeight         = 16
	logoWidth          = 96
	stateFormatVersion = 1
)

var patternNames = [PatternCount]string{"checkerboard", "gradient", "stripes", "diagonal"}

// Engine renders test patterns for a validated ROM.
type Engine struct {
	header  rom.Header
	fb      *video.FrameBuffer
	pattern int
	frame   uint64
	speed   float64
	carry   float64
	stopped bool
}

// Factory boots test pattern engines.
var Factory = engine.FactoryFunc(Boot)

// Boot reads and validates the ROM at romPath.
func Boot(romPath string, opts engine.Options) (engine.Engine, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrBootFailed, err)
	}
	header, err := rom.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrBootFailed, romPath, err)
	}

	e := &Engine{
		header:  header,
		fb:      video.NewFrameBuffer(),
		pattern: int(header.HeaderChecksum) % PatternCount,
		speed:   1,
	}
	e.render()

	slog.Debug("Test pattern engine booted",
		"title", header.Title,
		"pattern", patternNames[e.pattern],
		"headless", opts.Headless,
		"volume", opts.Volume)
	return e, nil
}

func (e *Engine) Tick() bool {
	if e.stopped {
		return false
	}

	e.carry += e.speed
	steps := uint64(e.carry)
	e.carry -= float64(steps)
	e.frame += steps
	e.render()
	return true
}

// Frame returns a copy of the current frame.
func (e *Engine) Frame() image.Image {
	return e.fb.Image()
}

// FrameCount is the number of frames emulated since boot.
func (e *Engine) FrameCount() uint64 {
	return e.frame
}

// Pattern names the pattern this ROM renders.
func (e *Engine) Pattern() string {
	return patternNames[e.pattern]
}

// SetSpeed changes how many frames each Tick emulates. Non-positive factors
// reset the speed to real time.
func (e *Engine) SetSpeed(factor float64) {
	if factor <= 0 {
		factor = 1
	}
	e.speed = factor
}

type state struct {
	Version        int
	Title          string
	HeaderChecksum uint8
	Frame          uint64
	Pattern        int
}

func (e *Engine) SaveState(w io.Writer) error {
	if e.stopped {
		return engine.ErrStopped
	}
	s := state{
		Version:        stateFormatVersion,
		Title:          e.header.Title,
		HeaderChecksum: e.header.HeaderChecksum,
		Frame:          e.frame,
		Pattern:        e.pattern,
	}
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}

func (e *Engine) LoadState(r io.Reader) error {
	if e.stopped {
		return engine.ErrStopped
	}
	var s state
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	if s.Version != stateFormatVersion {
		return fmt.Errorf("unsupported state version %d", s.Version)
	}
	if s.Title != e.header.Title || s.HeaderChecksum != e.header.HeaderChecksum {
		return fmt.Errorf("state belongs to %q, not %q", s.Title, e.header.Title)
	}
	if s.Pattern < 0 || s.Pattern >= PatternCount {
		return fmt.Errorf("state has invalid pattern %d", s.Pattern)
	}

	e.frame = s.Frame
	e.pattern = s.Pattern
	e.carry = 0
	e.render()
	return nil
}

func (e *Engine) Stop(persist bool) error {
	if e.stopped {
		return nil
	}
	e.stopped = true
	if persist {
		// No cartridge RAM to flush.
		slog.Debug("Test pattern engine has no battery RAM", "title", e.header.Title)
	}
	return nil
}

// render draws the frame for the current position. The output depends only
// on the pattern and frame counter, so a restored state redraws identically.
func (e *Engine) render() {
	if e.frame < BootFrames {
		e.renderBoot()
		return
	}

	step := int((e.frame - BootFrames) / AnimationFrames)
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			e.fb.SetPixel(x, y, patternPixel(e.pattern, x, y, step))
		}
	}
}

// renderBoot scrolls a dark bar down to the middle of a white screen.
func (e *Engine) renderBoot() {
	e.fb.Fill(video.WhiteColor)

	top := int(e.frame) * (video.FramebufferHeight/2 - logoHeight/2) / BootFrames
	left := (video.FramebufferWidth - logoWidth) / 2
	for y := top; y < top+logoHeight && y < video.FramebufferHeight; y++ {
		for x := left; x < left+logoWidth; x++ {
			e.fb.SetPixel(x, y, video.DarkGreyColor)
		}
	}
}

func patternPixel(pattern, x, y, step int) video.GBColor {
	switch pattern {
	case 0:
		if ((x/TileSize)+(y/TileSize)+step)%2 == 0 {
			return video.WhiteColor
		}
		return video.BlackColor
	case 1:
		return video.Palette[((x*4/video.FramebufferWidth)+step)%4]
	case 2:
		if ((x+step*StripeSpeed)/StripeWidth)%2 == 0 {
			return video.WhiteColor
		}
		return video.DarkGreyColor
	default:
		if ((x+y+step*DiagonalSpeed)/TileSize)%2 == 0 {
			return video.LightGreyColor
		}
		return video.DarkGreyColor
	}
}

var _ engine.Engine = (*Engine)(nil)
