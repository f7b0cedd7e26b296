package effect

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/esimov/stackblur-go"
)

const (
	MinBlurRadius = 5
	MaxBlurRadius = 50
)

// Blur applies a stack blur to the frame. The radius can be changed between frames.
type Blur struct {
	radius atomic.Uint32
}

// NewBlur returns a blur effect; the radius is clamped to the supported interval.
func NewBlur(radius uint32) *Blur {
	b := &Blur{}
	b.SetRadius(radius)
	return b
}

// Name implements Effect.
func (b *Blur) Name() string { return "blur" }

// Radius returns the current blur radius.
func (b *Blur) Radius() uint32 { return b.radius.Load() }

// SetRadius updates the blur radius, clamped to [MinBlurRadius, MaxBlurRadius].
func (b *Blur) SetRadius(radius uint32) {
	switch {
	case radius < MinBlurRadius:
		radius = MinBlurRadius
	case radius > MaxBlurRadius:
		radius = MaxBlurRadius
	}
	b.radius.Store(radius)
}

// Grow increases the radius by delta, which can be negative.
func (b *Blur) Grow(delta int) {
	r := int(b.Radius()) + delta
	if r < 0 {
		r = 0
	}
	b.SetRadius(uint32(r))
}

// Apply implements Effect.
func (b *Blur) Apply(frame *image.NRGBA) (*image.NRGBA, error) {
	blurred, err := stackblur.Process(frame, b.Radius())
	if err != nil {
		return nil, fmt.Errorf("blur: %w", err)
	}
	return blurred, nil
}
