package video

import (
	"image"
	"image/color"
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is a packed 0xRRGGBBAA pixel.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// Palette lists the four DMG shades from darkest to lightest.
var Palette = [4]GBColor{BlackColor, DarkGreyColor, LightGreyColor, WhiteColor}

func (c GBColor) RGBA() (r, g, b, a uint32) {
	return color.RGBA{
		R: uint8(c >> 24),
		G: uint8(c >> 16),
		B: uint8(c >> 8),
		A: uint8(c),
	}.RGBA()
}

type FrameBuffer struct {
	width  int
	height int
	buffer []uint32
}

// NewFrameBuffer creates a Game Boy sized frame buffer filled with white.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
	fb.Fill(WhiteColor)
	return fb
}

func (fb *FrameBuffer) GetPixel(x, y int) GBColor {
	return GBColor(fb.buffer[y*fb.width+x])
}

func (fb *FrameBuffer) SetPixel(x, y int, c GBColor) {
	fb.buffer[y*fb.width+x] = uint32(c)
}

func (fb *FrameBuffer) Fill(c GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(c)
	}
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Image copies the buffer into a new RGBA image.
func (fb *FrameBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	for i, px := range fb.buffer {
		idx := i * 4
		img.Pix[idx] = byte(px >> 24)
		img.Pix[idx+1] = byte(px >> 16)
		img.Pix[idx+2] = byte(px >> 8)
		img.Pix[idx+3] = byte(px)
	}
	return img
}

// Shade maps any color to the nearest of the four DMG shades, 0 being black
// and 3 white.
func Shade(c color.Color) int {
	gray := color.GrayModel.Convert(c).(color.Gray).Y
	switch {
	case gray >= 0xCC:
		return 3
	case gray >= 0x72:
		return 2
	case gray >= 0x26:
		return 1
	default:
		return 0
	}
}
