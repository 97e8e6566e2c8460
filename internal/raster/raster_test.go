package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/jpeg", true},
		{"IMAGE/PNG", true},
		{"image/webp; q=1", true},
		{"image/tiff", true},
		{"application/pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Accepts(tt.mime); got != tt.want {
			t.Errorf("Accepts(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestDecodeRoundTripPNG(t *testing.T) {
	src := solid(7, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	data, err := EncodePNG(src)
	if err != nil {
		t.Fatal(err)
	}
	img, format, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds().Dx() != 7 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v, want 7x3", img.Bounds())
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 7 || cfg.Height != 3 {
		t.Errorf("config = %dx%d, want 7x3", cfg.Width, cfg.Height)
	}
}

func TestDecodeFailure(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image")} {
		if _, _, err := Decode(data); !errors.Is(err, ErrDecode) {
			t.Errorf("Decode(%q) error = %v, want ErrDecode", data, err)
		}
	}
}

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := solid(10, 10, color.NRGBA{R: 255, A: 255})
	sub := src.SubImage(image.Rect(2, 3, 6, 8))
	out := ToNRGBA(sub)
	if out.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
	out.Pix[0] = 0
	if src.Pix[0] != 255 {
		t.Error("ToNRGBA aliases its input")
	}
}

func TestEncodeJPEGClampsQuality(t *testing.T) {
	src := solid(4, 4, color.NRGBA{G: 200, A: 255})
	for _, q := range []int{-5, 0, 50, 300} {
		data, err := EncodeJPEG(src, q)
		if err != nil {
			t.Fatalf("quality %d: %v", q, err)
		}
		if _, format, err := Decode(data); err != nil || format != "jpeg" {
			t.Errorf("quality %d: format %q err %v", q, format, err)
		}
	}
}
