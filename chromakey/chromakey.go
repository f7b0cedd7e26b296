// Package chromakey implements color keying: pixels whose color falls inside a
// configurable range are made fully transparent, every other pixel is left untouched.
package chromakey

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"
)

// KeyPix keys out the matching pixels of a contiguous RGBA byte buffer, in place.
// Trailing bytes which do not form a whole pixel are ignored.
func KeyPix(pix []uint8, t Thresholds) {
	if t.Empty() {
		return
	}
	keyRow(pix[:len(pix)-len(pix)%4], t)
}

// Key keys out the matching pixels of img, in place.
func Key(img *image.NRGBA, t Thresholds) {
	if t.Empty() {
		return
	}
	keyRows(img, t, 0, img.Bounds().Dy())
}

// KeyMasked behaves like Key, except that the pixels where protect has a non-zero
// alpha value are never keyed. The mask is sampled in img coordinates.
func KeyMasked(img *image.NRGBA, t Thresholds, protect image.Image) {
	if protect == nil {
		Key(img, t)
		return
	}
	if t.Empty() {
		return
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x, i = x+1, i+4 {
			p := img.Pix[i : i+4 : i+4]
			if !t.Match(p[0], p[1], p[2]) {
				continue
			}
			if _, _, _, a := protect.At(x, y).RGBA(); a != 0 {
				continue
			}
			p[3] = 0
		}
	}
}

// KeyParallel keys out the matching pixels of img using up to workers goroutines,
// each one owning a horizontal band of rows. The result is identical to Key.
func KeyParallel(ctx context.Context, img *image.NRGBA, t Thresholds, workers int) error {
	if t.Empty() {
		return nil
	}
	height := img.Bounds().Dy()
	if workers <= 1 || height < workers {
		keyRows(img, t, 0, height)
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	band := (height + workers - 1) / workers
	for y0 := 0; y0 < height; y0 += band {
		y0, y1 := y0, min(y0+band, height)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			keyRows(img, t, y0, y1)
			return nil
		})
	}
	return g.Wait()
}

// keyRows keys the rows [y0, y1) of img, relative to its bounds.
func keyRows(img *image.NRGBA, t Thresholds, y0, y1 int) {
	bounds := img.Bounds()
	rowLen := bounds.Dx() * 4
	for y := bounds.Min.Y + y0; y < bounds.Min.Y+y1; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		keyRow(img.Pix[i:i+rowLen], t)
	}
}

func keyRow(pix []uint8, t Thresholds) {
	rmin, rmax := t.Red.Min, t.Red.Max
	gmin, gmax := t.Green.Min, t.Green.Max
	bmin, bmax := t.Blue.Min, t.Blue.Max

	for i := 0; i < len(pix); i += 4 {
		p := pix[i : i+4 : i+4]
		if p[0] >= rmin && p[0] <= rmax &&
			p[1] >= gmin && p[1] <= gmax &&
			p[2] >= bmin && p[2] <= bmax {
			// take it out!
			p[3] = 0
		}
	}
}
