// Package detector finds faces in grayscale frames using the pigo cascade classifier.
package detector

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/esimov/greenscreen-wasm/draw"
	pigo "github.com/esimov/pigo/core"
)

// ErrNotUnpacked is returned when detecting faces before a cascade was unpacked.
var ErrNotUnpacked = errors.New("detector: cascade not unpacked")

// CascadePath is where the face finder cascade is served from, relative to the page.
const CascadePath = "/cascade/facefinder"

// Face is a detected face: its center, the side of its square region and the detection quality.
type Face struct {
	Row, Col int
	Scale    int
	Q        float32
}

// Rect returns the square region of the face.
func (f Face) Rect() image.Rectangle {
	half := f.Scale / 2
	return image.Rect(f.Col-half, f.Row-half, f.Col+half, f.Row+half)
}

// Ellipse returns the elliptic face contour used as a keying guard.
func (f Face) Ellipse() draw.Ellipse {
	return draw.Ellipse{
		Cx: f.Col,
		Cy: f.Row,
		Rx: int(float64(f.Scale) * 0.8 / 1.6),
		Ry: int(float64(f.Scale) * 0.8 / 1.2),
	}
}

// Detector wraps the pigo classifier with the parameters used on webcam frames.
type Detector struct {
	mu         sync.Mutex
	classifier *pigo.Pigo

	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinQuality   float32
}

// NewDetector returns a detector with the default cascade parameters.
func NewDetector() *Detector {
	return &Detector{
		MinSize:      100,
		MaxSize:      600,
		ShiftFactor:  0.15,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5,
	}
}

// Unpack loads the binary face finder cascade.
func (d *Detector) Unpack(cascade []byte) (err error) {
	if len(cascade) < 16 {
		return fmt.Errorf("detector: cascade too short (%d bytes)", len(cascade))
	}
	// The classifier indexes the packet without bound checks.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector: malformed cascade: %v", r)
		}
	}()
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return fmt.Errorf("detector: unpacking cascade: %w", err)
	}
	d.mu.Lock()
	d.classifier = classifier
	d.mu.Unlock()
	return nil
}

// Ready reports whether a cascade has been unpacked.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier != nil
}

// DetectFaces runs the cascade over a rows x cols grayscale frame and returns
// the clustered detections whose quality is above MinQuality.
func (d *Detector) DetectFaces(gray []uint8, rows, cols int) ([]Face, error) {
	d.mu.Lock()
	classifier := d.classifier
	d.mu.Unlock()
	if classifier == nil {
		return nil, ErrNotUnpacked
	}
	if len(gray) < rows*cols {
		return nil, fmt.Errorf("detector: %d pixels for a %dx%d frame", len(gray), cols, rows)
	}

	params := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     d.MaxSize,
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	dets := classifier.RunCascade(params, 0.0)
	dets = classifier.ClusterDetections(dets, d.IoUThreshold)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.MinQuality {
			continue
		}
		faces = append(faces, Face{Row: det.Row, Col: det.Col, Scale: det.Scale, Q: det.Q})
	}
	return faces, nil
}

// Mask returns the union of the face contours as an alpha mask over bounds,
// or nil when no face was found.
func Mask(bounds image.Rectangle, faces []Face) *image.Alpha {
	ellipses := make([]draw.Ellipse, 0, len(faces))
	for _, f := range faces {
		ellipses = append(ellipses, f.Ellipse())
	}
	return draw.Union(bounds, ellipses)
}
