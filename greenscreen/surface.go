//go:build js && wasm

package greenscreen

import (
	"fmt"
	"image"
	"syscall/js"
)

// surface moves frames between the video element, the 2d canvas context and Go memory.
type surface struct {
	ctx    js.Value
	video  js.Value
	width  int
	height int
}

// ReadFrame draws the current webcam frame into the canvas and copies it into dst.
func (s *surface) ReadFrame(dst *image.NRGBA) error {
	s.ctx.Call("drawImage", s.video, 0, 0, s.width, s.height)
	return s.copyCanvas(dst)
}

// WriteFrame puts the frame back on the canvas.
func (s *surface) WriteFrame(src *image.NRGBA) error {
	uint8Arr := js.Global().Get("Uint8Array").New(len(src.Pix))
	js.CopyBytesToJS(uint8Arr, src.Pix)

	uint8Clamped := js.Global().Get("Uint8ClampedArray").New(uint8Arr.Get("buffer"))
	rawData := js.Global().Get("ImageData").New(uint8Clamped, s.width, s.height)
	s.ctx.Call("putImageData", rawData, 0, 0)
	return nil
}

func (s *surface) copyCanvas(dst *image.NRGBA) error {
	rgba := s.ctx.Call("getImageData", 0, 0, s.width, s.height).Get("data")

	// Convert the rgba value of type Uint8ClampedArray to Uint8Array in order to
	// be able to transfer it from Javascript to Go via the js.CopyBytesToGo function.
	uint8Arr := js.Global().Get("Uint8Array").New(rgba.Get("buffer"))
	if n := js.CopyBytesToGo(dst.Pix, uint8Arr); n != len(dst.Pix) {
		return fmt.Errorf("copied %d bytes out of %d", n, len(dst.Pix))
	}
	return nil
}
