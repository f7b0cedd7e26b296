// Package sampler moves camera frames through the effect chain and the color key
// filter, then hands them to the renderer.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/esimov/greenscreen-wasm/chromakey"
	"github.com/esimov/greenscreen-wasm/effect"
	"github.com/esimov/greenscreen-wasm/pixels"
)

// Source copies the current camera frame into dst.
type Source interface {
	ReadFrame(dst *image.NRGBA) error
}

// Sink renders a frame on the visible surface.
type Sink interface {
	WriteFrame(src *image.NRGBA) error
}

// ThresholdFunc returns the current threshold set. It is called once per frame.
type ThresholdFunc func() chromakey.Thresholds

// GuardFunc returns a mask of the pixels which must not be keyed in frame, or nil.
type GuardFunc func(frame *image.NRGBA) image.Image

// ErrNoFrame is returned by Frame until a frame has been rendered.
var ErrNoFrame = errors.New("sampler: no frame rendered yet")

// Stats counts the processed frames.
type Stats struct {
	Rendered uint64
	Failed   uint64
}

// Sampler runs one Source → effects → key → Sink cycle per Tick.
type Sampler struct {
	source     Source
	sink       Sink
	thresholds ThresholdFunc
	workers    int
	logger     *slog.Logger

	mu      sync.Mutex
	effects []effect.Effect
	guard   GuardFunc

	// frameMu is held from the source read to the sink write, so Frame never
	// observes a frame which is only partially processed.
	frameMu  sync.Mutex
	frame    *image.NRGBA
	complete bool
	rendered atomic.Uint64
	failed   atomic.Uint64
}

// New creates a sampler working on width x height frames.
func New(width, height int, src Source, dst Sink, thresholds ThresholdFunc, workers int, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		source:     src,
		sink:       dst,
		thresholds: thresholds,
		workers:    workers,
		logger:     logger,
		frame:      pixels.NewFrame(width, height),
	}
}

// Size returns the frame dimensions.
func (s *Sampler) Size() (int, int) {
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

// Toggle enables the effect if it is disabled and disables it otherwise.
// Enabled effects run in the order they were enabled. It reports whether the
// effect is enabled after the call.
func (s *Sampler) Toggle(e effect.Effect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.effects {
		if cur.Name() == e.Name() {
			s.effects = append(s.effects[:i:i], s.effects[i+1:]...)
			s.logger.Info("sampler: effect disabled", "effect", e.Name())
			return false
		}
	}
	s.effects = append(s.effects, e)
	s.logger.Info("sampler: effect enabled", "effect", e.Name())
	return true
}

// Effects returns the names of the enabled effects.
func (s *Sampler) Effects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.effects))
	for i, e := range s.effects {
		names[i] = e.Name()
	}
	return names
}

// SetGuard installs the keying guard; nil removes it.
func (s *Sampler) SetGuard(g GuardFunc) {
	s.mu.Lock()
	s.guard = g
	s.mu.Unlock()
}

// Tick processes one frame. Any error aborts the frame; the next tick starts over.
// Ticks must not run concurrently.
func (s *Sampler) Tick(ctx context.Context) error {
	if err := s.tick(ctx); err != nil {
		s.failed.Add(1)
		return err
	}
	s.rendered.Add(1)
	return nil
}

func (s *Sampler) tick(ctx context.Context) error {
	s.mu.Lock()
	effects := append([]effect.Effect(nil), s.effects...)
	guard := s.guard
	s.mu.Unlock()

	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.complete = false

	if err := s.source.ReadFrame(s.frame); err != nil {
		return fmt.Errorf("reading frame: %w", err)
	}

	// The guard looks at the camera frame, before any effect alters it.
	var protect image.Image
	if guard != nil {
		protect = guard(s.frame)
	}

	for _, e := range effects {
		out, err := e.Apply(s.frame)
		if err != nil {
			return fmt.Errorf("effect %s: %w", e.Name(), err)
		}
		if out != s.frame {
			if out.Bounds().Size() != s.frame.Bounds().Size() {
				return fmt.Errorf("effect %s: frame resized to %v", e.Name(), out.Bounds().Size())
			}
			copy(s.frame.Pix, pixels.ImgToPix(out))
		}
	}

	levels := s.thresholds()
	if protect != nil {
		chromakey.KeyMasked(s.frame, levels, protect)
	} else if err := chromakey.KeyParallel(ctx, s.frame, levels, s.workers); err != nil {
		return fmt.Errorf("keying frame: %w", err)
	}

	if err := s.sink.WriteFrame(s.frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	s.complete = true
	return nil
}

// Frame returns a copy of the last rendered frame. A tick in progress is
// waited for; after a failed tick ErrNoFrame is returned, since the surface
// no longer shows a keyed frame.
func (s *Sampler) Frame() (*image.NRGBA, error) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if !s.complete {
		return nil, ErrNoFrame
	}
	b := s.frame.Bounds()
	return pixels.PixToImage(s.frame.Pix, b.Dx(), b.Dy()), nil
}

// Stats returns the frame counters.
func (s *Sampler) Stats() Stats {
	return Stats{Rendered: s.rendered.Load(), Failed: s.failed.Load()}
}
