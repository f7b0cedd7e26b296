package chromakey

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// synthFrame creates a w x h frame filled with pseudo random, fully opaque pixels.
func synthFrame(w, h int, seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rnd.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func rng(lo, hi uint8) Range { return Range{Min: lo, Max: hi} }

func TestKeyMatchesIffAllChannelsInRange(t *testing.T) {
	th := Thresholds{Red: rng(40, 120), Green: rng(100, 255), Blue: rng(0, 90)}
	img := synthFrame(64, 48, 1)
	orig := append([]uint8(nil), img.Pix...)

	Key(img, th)

	for i := 0; i < len(orig); i += 4 {
		r, g, b := orig[i], orig[i+1], orig[i+2]
		inside := r >= 40 && r <= 120 && g >= 100 && b <= 90
		if inside {
			if img.Pix[i+3] != 0 {
				t.Fatalf("pixel %d (%d,%d,%d) should be transparent", i/4, r, g, b)
			}
			if !bytes.Equal(img.Pix[i:i+3], orig[i:i+3]) {
				t.Fatalf("pixel %d color channels changed", i/4)
			}
			continue
		}
		if !bytes.Equal(img.Pix[i:i+4], orig[i:i+4]) {
			t.Fatalf("pixel %d (%d,%d,%d) should be unchanged", i/4, r, g, b)
		}
	}
}

func TestKeyIsIdempotent(t *testing.T) {
	th := Thresholds{Red: rng(0, 128), Green: rng(64, 255), Blue: rng(0, 200)}
	once := synthFrame(32, 32, 2)
	Key(once, th)
	twice := image.NewNRGBA(once.Bounds())
	copy(twice.Pix, once.Pix)
	Key(twice, th)

	if !bytes.Equal(once.Pix, twice.Pix) {
		t.Error("keying twice differs from keying once")
	}
}

func TestKeyBoundsAreInclusive(t *testing.T) {
	th := Thresholds{Red: rng(10, 20), Green: rng(30, 40), Blue: rng(50, 60)}
	cases := []struct {
		name string
		px   color.NRGBA
		want uint8
	}{
		{"at minimum", color.NRGBA{10, 30, 50, 255}, 0},
		{"at maximum", color.NRGBA{20, 40, 60, 255}, 0},
		{"below red", color.NRGBA{9, 30, 50, 255}, 255},
		{"above green", color.NRGBA{15, 41, 55, 255}, 255},
		{"above blue", color.NRGBA{15, 35, 61, 255}, 255},
		{"keeps partial alpha", color.NRGBA{9, 30, 50, 77}, 77},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.SetNRGBA(0, 0, tc.px)
			Key(img, th)
			if got := img.NRGBAAt(0, 0).A; got != tc.want {
				t.Errorf("alpha = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestKeyMatchEverything(t *testing.T) {
	img := synthFrame(16, 9, 3)
	Key(img, All)
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatalf("pixel %d still opaque", i/4)
		}
	}
}

func TestKeyInvertedBoundsIsNoop(t *testing.T) {
	for _, th := range []Thresholds{
		{Red: rng(255, 0), Green: rng(0, 255), Blue: rng(0, 255)},
		{Red: rng(0, 255), Green: rng(200, 100), Blue: rng(0, 255)},
		{Red: rng(0, 255), Green: rng(0, 255), Blue: Range{Invalid: true}},
	} {
		img := synthFrame(16, 16, 4)
		orig := append([]uint8(nil), img.Pix...)
		Key(img, th)
		if !bytes.Equal(img.Pix, orig) {
			t.Errorf("%v: frame changed", th)
		}
	}
}

func TestKeyGreenPixel(t *testing.T) {
	th := Thresholds{Red: rng(0, 50), Green: rng(100, 255), Blue: rng(0, 50)}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})

	Key(img, th)

	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 255, 0, 0}) {
		t.Errorf("green pixel = %v, want transparent", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("red pixel = %v, want unchanged", got)
	}
}

func TestKeyHonorsSubImageBounds(t *testing.T) {
	img := synthFrame(8, 8, 5)
	orig := append([]uint8(nil), img.Pix...)
	sub := img.SubImage(image.Rect(2, 2, 5, 6)).(*image.NRGBA)

	Key(sub, All)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			i := img.PixOffset(x, y)
			inside := image.Pt(x, y).In(sub.Bounds())
			switch {
			case inside && img.Pix[i+3] != 0:
				t.Fatalf("(%d,%d) inside the sub image should be keyed", x, y)
			case !inside && img.Pix[i+3] != orig[i+3]:
				t.Fatalf("(%d,%d) outside the sub image was modified", x, y)
			}
		}
	}
}

func TestKeyPix(t *testing.T) {
	th := Thresholds{Red: rng(0, 50), Green: rng(100, 255), Blue: rng(0, 50)}
	pix := []uint8{
		0, 255, 0, 255,
		255, 0, 0, 255,
		0, 200, // incomplete trailing pixel
	}
	KeyPix(pix, th)
	want := []uint8{0, 255, 0, 0, 255, 0, 0, 255, 0, 200}
	if !bytes.Equal(pix, want) {
		t.Errorf("pix = %v, want %v", pix, want)
	}
}

func TestKeyMaskedProtectsMaskedPixels(t *testing.T) {
	img := synthFrame(10, 10, 6)
	mask := image.NewAlpha(img.Bounds())
	for x := 0; x < 10; x++ {
		mask.SetAlpha(x, 4, color.Alpha{A: 255})
	}

	KeyMasked(img, All, mask)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			a := img.NRGBAAt(x, y).A
			if y == 4 && a != 255 {
				t.Fatalf("(%d,%d) is protected but was keyed", x, y)
			}
			if y != 4 && a != 0 {
				t.Fatalf("(%d,%d) should be keyed", x, y)
			}
		}
	}
}

func TestKeyMaskedNilMask(t *testing.T) {
	a, b := synthFrame(12, 7, 7), synthFrame(12, 7, 7)
	th := Thresholds{Red: rng(0, 128), Green: rng(0, 128), Blue: rng(0, 255)}
	Key(a, th)
	KeyMasked(b, th, nil)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("KeyMasked with a nil mask differs from Key")
	}
}

func TestKeyParallelMatchesKey(t *testing.T) {
	th := Thresholds{Red: rng(30, 220), Green: rng(10, 180), Blue: rng(0, 140)}
	for _, workers := range []int{0, 1, 3, 4, 7, 64} {
		want, got := synthFrame(33, 21, 8), synthFrame(33, 21, 8)
		Key(want, th)
		if err := KeyParallel(context.Background(), got, th, workers); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !bytes.Equal(want.Pix, got.Pix) {
			t.Errorf("workers=%d: result differs from Key", workers)
		}
	}
}

func TestKeyParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img := synthFrame(16, 16, 9)
	if err := KeyParallel(ctx, img, All, 4); err == nil {
		t.Error("expected the cancellation to be reported")
	}
}

func BenchmarkKey640x480(b *testing.B) {
	img := synthFrame(640, 480, 10)
	th := Thresholds{Red: rng(0, 100), Green: rng(0, 255), Blue: rng(0, 100)}
	b.SetBytes(int64(len(img.Pix)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Key(img, th)
	}
}

func BenchmarkKeyParallel640x480(b *testing.B) {
	img := synthFrame(640, 480, 10)
	th := Thresholds{Red: rng(0, 100), Green: rng(0, 255), Blue: rng(0, 100)}
	ctx := context.Background()
	b.SetBytes(int64(len(img.Pix)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		KeyParallel(ctx, img, th, 4)
	}
}
