// Package effect provides the optional per-frame effects applied before color keying.
package effect

import (
	"image"
	"math"

	"github.com/esimov/greenscreen-wasm/pixels"
)

// Effect transforms a frame. Implementations may modify the frame in place and
// return it, or return a new frame of the same size.
type Effect interface {
	Name() string
	Apply(frame *image.NRGBA) (*image.NRGBA, error)
}

// Red boosts the red channel and damps green and blue.
type Red struct{}

// Name implements Effect.
func (Red) Name() string { return "red" }

// Apply implements Effect.
func (Red) Apply(frame *image.NRGBA) (*image.NRGBA, error) {
	bounds := frame.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := frame.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x, i = x+1, i+4 {
			p := frame.Pix[i : i+3 : i+3]
			p[0] = pixels.ClampByte(int(p[0]) + 100)
			p[1] = pixels.ClampByte(int(p[1]) - 50)
			// Canvas pixel buffers round half to even.
			p[2] = uint8(math.RoundToEven(float64(p[2]) * 0.5))
		}
	}
	return frame, nil
}

// Channel byte offsets of the RGBSplit ghosting effect.
const (
	splitRed   = -150
	splitGreen = 500
	splitBlue  = -550
)

// RGBSplit offsets the red, green and blue channels in different directions,
// producing a ghost like image. The frame is rewritten in a single sequential pass,
// so channels copied ahead are read back by the following pixels.
type RGBSplit struct{}

// Name implements Effect.
func (RGBSplit) Name() string { return "rgbsplit" }

// Apply implements Effect.
func (RGBSplit) Apply(frame *image.NRGBA) (*image.NRGBA, error) {
	pix := frame.Pix
	n := len(pix) - len(pix)%4
	set := func(i int, v uint8) {
		if i >= 0 && i < len(pix) {
			pix[i] = v
		}
	}
	for i := 0; i < n; i += 4 {
		set(i+splitRed, pix[i+0])
		set(i+splitGreen, pix[i+1])
		set(i+splitBlue, pix[i+2])
	}
	return frame, nil
}
