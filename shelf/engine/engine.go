// Package engine defines the contract between sessions and the emulation
// core. Everything instruction-level lives behind Engine.
package engine

import (
	"errors"
	"image"
	"io"
)

var (
	// ErrBootFailed is returned by a Factory that cannot start the ROM.
	ErrBootFailed = errors.New("engine failed to boot")
	// ErrRuntimeFault marks a failure of a running engine.
	ErrRuntimeFault = errors.New("engine runtime fault")
	// ErrStopped is returned by operations on an engine that was stopped.
	ErrStopped = errors.New("engine stopped")
)

// Engine is one running emulator instance bound to one ROM.
type Engine interface {
	// Tick advances one frame. It returns false once the engine can no
	// longer run.
	Tick() bool
	// Frame returns the most recently rendered frame.
	Frame() image.Image
	// SaveState writes the complete machine state to w.
	SaveState(w io.Writer) error
	// LoadState replaces the machine state with one written by SaveState.
	LoadState(r io.Reader) error
	// SetSpeed sets the emulation speed multiplier, 1.0 being real time.
	SetSpeed(factor float64)
	// Stop releases the engine. With persist set, cartridge RAM is flushed.
	// Calling Stop more than once is allowed.
	Stop(persist bool) error
}

// Options configure a booted engine.
type Options struct {
	// Headless engines never present anything and skip audio output.
	Headless bool
	Volume   float64
}

// Factory boots engines.
type Factory interface {
	Boot(romPath string, opts Options) (Engine, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(romPath string, opts Options) (Engine, error)

func (f FactoryFunc) Boot(romPath string, opts Options) (Engine, error) {
	return f(romPath, opts)
}
