// Package snapshot turns the visible surface into downloadable JPEG photos.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	MIMEType = "image/jpeg"
	// Filename is the suggested name of every downloaded photo.
	Filename = "handsome"
	Alt      = "Handsome Man"
)

// ErrEmpty is returned when exporting an image without pixels.
var ErrEmpty = errors.New("snapshot: empty image")

// Photo is one exported frame.
type Photo struct {
	ID       string
	Href     string // full size data URL
	Preview  string // downscaled data URL shown in the strip
	Filename string
	Alt      string
	Taken    time.Time
}

// Exporter encodes frames as JPEG data URLs.
type Exporter struct {
	Quality    int
	ThumbWidth int

	now func() time.Time
}

// NewExporter returns an exporter using the given JPEG quality and preview width.
// A zero thumbWidth keeps the preview at full size.
func NewExporter(quality, thumbWidth int) *Exporter {
	return &Exporter{
		Quality:    quality,
		ThumbWidth: thumbWidth,
		now:        time.Now,
	}
}

// Export encodes img. Every call produces a new Photo with its own ID.
// JPEG carries no alpha: keyed pixels end up black, as with canvas.toDataURL.
func (e *Exporter) Export(img image.Image) (*Photo, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmpty
	}
	href, err := e.encode(img)
	if err != nil {
		return nil, err
	}
	preview := href
	if thumb := e.thumbnail(img); thumb != nil {
		if preview, err = e.encode(thumb); err != nil {
			return nil, err
		}
	}
	return &Photo{
		ID:       uuid.NewString(),
		Href:     href,
		Preview:  preview,
		Filename: Filename,
		Alt:      Alt,
		Taken:    e.now(),
	}, nil
}

func (e *Exporter) encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return "", fmt.Errorf("snapshot: encoding jpeg: %w", err)
	}
	return DataURL(MIMEType, buf.Bytes()), nil
}

// thumbnail downscales img to ThumbWidth, keeping the aspect ratio.
// It returns nil when no downscaling is needed.
func (e *Exporter) thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	if e.ThumbWidth <= 0 || bounds.Dx() <= e.ThumbWidth {
		return nil
	}
	height := bounds.Dy() * e.ThumbWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, e.ThumbWidth, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// DataURL returns the base64 data URL of data.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
