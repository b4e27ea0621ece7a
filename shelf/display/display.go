// Package display defines the surfaces a session can present frames on and
// the hotkey commands they report back.
package display

import (
	"fmt"
	"image"
)

// CommandKind enumerates the session hotkeys.
type CommandKind int

const (
	TogglePause CommandKind = iota
	Screenshot
	SaveState
	LoadState
	Quit
)

// Command is a hotkey press. Slot is set for SaveState and LoadState.
type Command struct {
	Kind CommandKind
	Slot int
}

func (c Command) String() string {
	switch c.Kind {
	case TogglePause:
		return "pause"
	case Screenshot:
		return "screenshot"
	case SaveState:
		return fmt.Sprintf("save slot %d", c.Slot)
	case LoadState:
		return fmt.Sprintf("load slot %d", c.Slot)
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("command(%d)", int(c.Kind))
	}
}

// Config is the part of the session settings a surface needs.
type Config struct {
	Title      string
	Scale      int
	Fullscreen bool
}

// Surface presents frames and collects hotkeys.
type Surface interface {
	// Present shows frame.
	Present(frame image.Image) error
	// Poll drains pending input. open is false once the user closed the
	// surface.
	Poll() (cmds []Command, open bool)
	Close() error
}

// Opener creates a surface for a session.
type Opener func(cfg Config) (Surface, error)

// HelpText describes the session hotkeys.
const HelpText = "P/Space=pause F=screenshot 1-3=save F1-F3=load Esc=quit"
