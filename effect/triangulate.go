package effect

import (
	"fmt"
	"image"
	"sync"

	"github.com/esimov/greenscreen-wasm/pixels"
	triangle "github.com/esimov/triangle/v2"
)

const (
	MinTrianglePoints = 150
	MaxTrianglePoints = 750
)

// Triangulate turns the frame into a Delaunay triangulated image.
type Triangulate struct {
	mu        sync.Mutex
	processor triangle.Processor
}

// NewTriangulate returns a triangulation effect using maxPoints triangle vertices.
func NewTriangulate(maxPoints int) *Triangulate {
	t := &Triangulate{
		processor: triangle.Processor{
			BlurRadius:      2,
			Noise:           0,
			BlurFactor:      2,
			EdgeFactor:      4,
			PointRate:       0.075,
			PointsThreshold: 10,
			Wireframe:       triangle.WithoutWireframe,
			StrokeWidth:     0,
			IsStrokeSolid:   false,
			Grayscale:       false,
			BgColor:         "#ffffff00",
		},
	}
	t.SetPoints(maxPoints)
	return t
}

// Name implements Effect.
func (t *Triangulate) Name() string { return "triangulate" }

// Points returns the maximum number of triangle vertices.
func (t *Triangulate) Points() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processor.MaxPoints
}

// SetPoints updates the maximum number of triangle vertices, clamped to the supported interval.
func (t *Triangulate) SetPoints(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processor.MaxPoints = pixels.Clamp(n, MinTrianglePoints, MaxTrianglePoints)
}

// Apply implements Effect.
func (t *Triangulate) Apply(frame *image.NRGBA) (*image.NRGBA, error) {
	t.mu.Lock()
	proc := t.processor
	t.mu.Unlock()

	img := &triangle.Image{Processor: proc}
	triangled, _, _, err := img.Draw(frame, proc, func() {})
	if err != nil {
		return nil, fmt.Errorf("triangulate: %w", err)
	}
	return pixels.ToNRGBA(triangled), nil
}
