package pixels

import (
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPixToImageRowMajor(t *testing.T) {
	// 2x1 frame: a red pixel followed by a half transparent blue one.
	data := []uint8{255, 0, 0, 255, 0, 0, 255, 128}
	img := PixToImage(data, 2, 1)

	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{B: 255, A: 128}) {
		t.Errorf("pixel (1,0) = %v", got)
	}

	data[0] = 7
	if img.Pix[0] != 255 {
		t.Error("PixToImage must copy the source buffer")
	}
}

func TestImgToPixRoundTripsSubImage(t *testing.T) {
	img := NewFrame(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 9, A: 200})
		}
	}
	sub := img.SubImage(image.Rect(1, 2, 3, 4))
	pix := ImgToPix(sub)
	want := []uint8{
		1, 2, 9, 200, 2, 2, 9, 200,
		1, 3, 9, 200, 2, 3, 9, 200,
	}
	if len(pix) != len(want) {
		t.Fatalf("len = %d, want %d", len(pix), len(want))
	}
	for i := range want {
		if pix[i] != want[i] {
			t.Fatalf("pix[%d] = %d, want %d", i, pix[i], want[i])
		}
	}
}

func TestToNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	dst := ToNRGBA(src)
	if dst.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	if got := dst.NRGBAAt(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v", got)
	}

	same := NewFrame(1, 1)
	if ToNRGBA(same) != same {
		t.Error("an origin anchored NRGBA should be returned as is")
	}
}

func TestRgbaToGrayscale(t *testing.T) {
	data := []uint8{
		255, 255, 255, 255, 0, 0, 0, 255,
		0, 255, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 10, 10, 10, 0,
	}
	gray := RgbaToGrayscale(data, 2, 3)
	want := []uint8{255, 0, 182, 54, 18, 10}
	for i := range want {
		if gray[i] != want[i] {
			t.Errorf("gray[%d] = %d, want %d", i, gray[i], want[i])
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(300, 0, 255); got != 255 {
		t.Errorf("Clamp(300) = %d", got)
	}
	if got := Clamp(-4.5, 0.0, 1.0); got != 0 {
		t.Errorf("Clamp(-4.5) = %v", got)
	}
	for in, want := range map[int]uint8{-50: 0, 0: 0, 128: 128, 255: 255, 355: 255} {
		if got := ClampByte(in); got != want {
			t.Errorf("ClampByte(%d) = %d, want %d", in, got, want)
		}
	}
	if Min(3, 1, 2) != 1 || Max(3, 1, 2) != 3 {
		t.Error("Min/Max")
	}
}

func TestLoadAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/greenscreen.yaml" {
			http.NotFound(w, r)
			return
		}
		if r.URL.RawQuery == "" {
			t.Error("missing cache busting query")
		}
		w.Write([]byte("session: {}"))
	}))
	defer srv.Close()

	b, err := LoadAsset(srv.URL+"/index.html", "/greenscreen.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "session: {}" {
		t.Errorf("body = %q", b)
	}

	if _, err := LoadAsset(srv.URL, "/missing"); err == nil {
		t.Error("expected an error for a missing asset")
	}
}
