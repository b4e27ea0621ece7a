//go:build sdl2

package sdl2

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/jeebie-shelf/shelf/display"
	"github.com/valerio/jeebie-shelf/shelf/video"
)

// Surface is an SDL2 window scaled by the configured window scale.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2)
type Surface struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	rgba     *image.RGBA
	open     bool
	closed   bool
}

var keyNames = map[sdl.Keycode]string{
	sdl.K_p:      "p",
	sdl.K_SPACE:  "Space",
	sdl.K_f:      "f",
	sdl.K_1:      "1",
	sdl.K_2:      "2",
	sdl.K_3:      "3",
	sdl.K_F1:     "F1",
	sdl.K_F2:     "F2",
	sdl.K_F3:     "F3",
	sdl.K_ESCAPE: "Escape",
	sdl.K_q:      "q",
}

// Open creates the window.
func Open(cfg display.Config) (display.Surface, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	scale := int32(cfg.Scale)
	if scale <= 0 {
		scale = 1
	}
	flags := uint32(sdl.WINDOW_SHOWN)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	window, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		video.FramebufferWidth*scale,
		video.FramebufferHeight*scale,
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %v", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create renderer: %v", err)
	}

	// ABGR8888 is R,G,B,A in memory on little-endian, the layout of image.RGBA.
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		video.FramebufferWidth,
		video.FramebufferHeight,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create texture: %v", err)
	}

	slog.Info("SDL2 surface initialized", "scale", scale, "fullscreen", cfg.Fullscreen)
	return &Surface{
		window:   window,
		renderer: renderer,
		texture:  texture,
		rgba:     image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight)),
		open:     true,
	}, nil
}

func (s *Surface) Present(frame image.Image) error {
	if s.closed {
		return fmt.Errorf("SDL2 surface closed")
	}
	if frame == nil {
		return nil
	}

	draw.Draw(s.rgba, s.rgba.Bounds(), frame, frame.Bounds().Min, draw.Src)
	if err := s.texture.Update(nil, unsafe.Pointer(&s.rgba.Pix[0]), s.rgba.Stride); err != nil {
		return fmt.Errorf("failed to update texture: %v", err)
	}

	s.renderer.SetDrawColor(0, 0, 0, 0xFF)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return nil
}

func (s *Surface) Poll() ([]display.Command, bool) {
	var cmds []display.Command
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			s.open = false
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			name, ok := keyNames[e.Keysym.Sym]
			if !ok {
				continue
			}
			if cmd, ok := display.CommandForKey(name); ok {
				if cmd.Kind == display.Quit {
					s.open = false
				}
				cmds = append(cmds, cmd)
			}
		}
	}
	return cmds, s.open
}

func (s *Surface) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	slog.Info("Cleaning up SDL2 surface")

	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
	return nil
}

var _ display.Surface = (*Surface)(nil)
