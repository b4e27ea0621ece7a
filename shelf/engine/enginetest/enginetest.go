// Package enginetest provides a scriptable engine for tests.
package enginetest

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/valerio/jeebie-shelf/shelf/engine"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

// Engine is a fake whose frame counter is its whole state. Failure knobs
// must be set before the engine is handed to the code under test.
type Engine struct {
	// FailAfter makes Tick return false once this many ticks succeeded.
	// Zero never fails.
	FailAfter int
	// PanicAfter makes Tick panic once this many ticks succeeded. Zero
	// never panics.
	PanicAfter int
	// NoFrame makes Frame return nil.
	NoFrame bool

	mu      sync.Mutex
	ticks   int
	frame   uint64
	speed   float64
	stops   int
	persist []bool
}

func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stops > 0 {
		return false
	}
	if e.PanicAfter > 0 && e.ticks >= e.PanicAfter {
		panic("enginetest: scripted panic")
	}
	if e.FailAfter > 0 && e.ticks >= e.FailAfter {
		return false
	}
	e.ticks++
	e.frame++
	return true
}

// Frame renders the frame counter into the first row of pixels.
func (e *Engine) Frame() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.NoFrame {
		return nil
	}
	fb := video.NewFrameBuffer()
	for bit := 0; bit < 64; bit++ {
		if e.frame&(1<<bit) != 0 {
			fb.SetPixel(bit, 0, video.BlackColor)
		}
	}
	return fb.Image()
}

func (e *Engine) SaveState(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return binary.Write(w, binary.BigEndian, e.frame)
}

func (e *Engine) LoadState(r io.Reader) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var frame uint64
	if err := binary.Read(r, binary.BigEndian, &frame); err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	e.frame = frame
	return nil
}

func (e *Engine) SetSpeed(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = factor
}

func (e *Engine) Stop(persist bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	e.persist = append(e.persist, persist)
	return nil
}

// FrameCounter is the engine's internal frame number, which LoadState
// rewinds.
func (e *Engine) FrameCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Ticks counts successful ticks.
func (e *Engine) Ticks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Stops records the persist flag of every Stop call.
func (e *Engine) Stops() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.persist...)
}

// Factory hands out prepared engines and records what it was asked to boot.
type Factory struct {
	// New builds the engine for each Boot. Nil boots a default Engine.
	New func(romPath string) *Engine
	// Err, when set, fails every Boot.
	Err error
	// Panic, when set, makes Boot panic with this value.
	Panic any

	mu      sync.Mutex
	booted  []string
	engines []*Engine
	opts    []engine.Options
}

func (f *Factory) Boot(romPath string, opts engine.Options) (engine.Engine, error) {
	if f.Panic != nil {
		panic(f.Panic)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.booted = append(f.booted, romPath)
	f.opts = append(f.opts, opts)
	if f.Err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrBootFailed, f.Err)
	}

	e := &Engine{}
	if f.New != nil {
		e = f.New(romPath)
	}
	f.engines = append(f.engines, e)
	return e, nil
}

// Booted lists the ROM paths passed to Boot.
func (f *Factory) Booted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.booted...)
}

// Engines lists the engines handed out.
func (f *Factory) Engines() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Engine(nil), f.engines...)
}

// Options lists the options passed to Boot.
func (f *Factory) Options() []engine.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Options(nil), f.opts...)
}

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Factory = (*Factory)(nil)
)
