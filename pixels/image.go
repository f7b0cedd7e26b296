package pixels

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

// NewFrame allocates a transparent frame of the given size.
func NewFrame(width, height int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}

// PixToImage converts row-major RGBA pixel data, as found in a canvas ImageData, to an image.
// The pixel data is copied, the source buffer can be reused by the caller.
func PixToImage(pixels []uint8, width, height int) *image.NRGBA {
	img := NewFrame(width, height)
	copy(img.Pix, pixels)
	return img
}

// ImgToPix converts an image to row-major, non-premultiplied RGBA pixel data.
func ImgToPix(img image.Image) []uint8 {
	bounds := img.Bounds()
	if src, ok := img.(*image.NRGBA); ok && src.Stride == bounds.Dx()*4 {
		pixels := make([]uint8, bounds.Dx()*bounds.Dy()*4)
		copy(pixels, src.Pix)
		return pixels
	}
	pixels := make([]uint8, 0, bounds.Dx()*bounds.Dy()*4)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pixels = append(pixels, c.R, c.G, c.B, c.A)
		}
	}
	return pixels
}

// ToNRGBA returns img as an *image.NRGBA anchored at the origin, converting it if needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if dst, ok := img.(*image.NRGBA); ok && dst.Bounds().Min == (image.Point{}) {
		return dst
	}
	bounds := img.Bounds()
	dst := NewFrame(bounds.Dx(), bounds.Dy())
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// RgbaToGrayscale converts the RGBA pixel data of a width x height frame to grayscale.
// The result has one byte per pixel, in row-major order.
func RgbaToGrayscale(data []uint8, width, height int) []uint8 {
	gray := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			// gray = 0.2*red + 0.7*green + 0.1*blue
			gray[y*width+x] = uint8(math.Round(
				0.2126*float64(data[i+0]) +
					0.7152*float64(data[i+1]) +
					0.0722*float64(data[i+2])))
		}
	}
	return gray
}

// LoadAsset fetches an asset served next to the page located at href.
// A cache busting query string is appended to the request.
func LoadAsset(href, path string) ([]byte, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("parsing page location: %w", err)
	}
	u.Path = path
	u.RawQuery = fmt.Sprint(time.Now().UnixNano())

	resp, err := http.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", path, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return b, nil
}
