//go:build !sdl2

package sdl2

import (
	"errors"

	"github.com/valerio/jeebie-shelf/shelf/display"
)

// ErrUnavailable is returned by Open in builds without SDL2.
var ErrUnavailable = errors.New("SDL2 display not available - build with -tags sdl2 to enable")

// Open returns ErrUnavailable.
func Open(display.Config) (display.Surface, error) {
	return nil, ErrUnavailable
}
