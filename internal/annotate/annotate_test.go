package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if (x+y)%2 == 0 {
				c = color.NRGBA{R: 20, G: 40, B: 60, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func drawHorizontal(t *testing.T, e *Engine, y float64) {
	t.Helper()
	e.BeginStroke(Point{4, y})
	if err := e.ExtendStroke(Point{16, y}); err != nil {
		t.Fatal(err)
	}
	if err := e.ExtendStroke(Point{28, y}); err != nil {
		t.Fatal(err)
	}
	e.EndStroke()
}

func TestNewOverlayIsTransparent(t *testing.T) {
	e := New(10, 7)
	if e.Overlay().Rect != image.Rect(0, 0, 10, 7) {
		t.Fatalf("overlay bounds = %v", e.Overlay().Rect)
	}
	if !e.Empty() {
		t.Error("new overlay is not empty")
	}
	if e.Tool() != Pen || e.Width() != DefaultWidth || e.Color() != (color.NRGBA{A: 255}) {
		t.Errorf("defaults = %v %d %v", e.Tool(), e.Width(), e.Color())
	}
}

func TestPenStroke(t *testing.T) {
	e := New(32, 32)
	e.SetColor(color.NRGBA{R: 255, A: 255})
	e.SetWidth(6)
	drawHorizontal(t, e, 16)

	if e.Empty() {
		t.Fatal("stroke left the overlay empty")
	}
	on := e.Overlay().NRGBAAt(16, 16)
	if on.A < 200 || on.R < 200 || on.G != 0 || on.B != 0 {
		t.Errorf("pixel on the stroke = %v, want opaque red", on)
	}
	if off := e.Overlay().NRGBAAt(16, 2); off.A != 0 {
		t.Errorf("pixel far from the stroke = %v, want transparent", off)
	}
}

func TestEraserRemovesOverlayPixels(t *testing.T) {
	e := New(32, 32)
	e.SetColor(color.NRGBA{B: 255, A: 255})
	e.SetWidth(4)
	drawHorizontal(t, e, 16)

	e.SetTool(Eraser)
	e.SetColor(color.NRGBA{}) // the eraser ignores color
	e.SetWidth(MaxWidth)
	drawHorizontal(t, e, 16)

	if a := e.Overlay().NRGBAAt(16, 16).A; a > 8 {
		t.Errorf("alpha after erasing = %d, want ~0", a)
	}
}

func TestExtendWithoutBeginDrawsNothing(t *testing.T) {
	e := New(16, 16)
	if err := e.ExtendStroke(Point{8, 8}); err != nil {
		t.Fatal(err)
	}
	if !e.Empty() {
		t.Error("ExtendStroke outside a stroke drew pixels")
	}
	if e.Drawing() {
		t.Error("engine reports drawing")
	}
}

func TestStrokeOutsideOverlayIsIgnored(t *testing.T) {
	e := New(16, 16)
	e.BeginStroke(Point{-100, -100})
	if err := e.ExtendStroke(Point{-90, -100}); err != nil {
		t.Fatal(err)
	}
	if !e.Empty() {
		t.Error("stroke outside the overlay drew pixels")
	}
}

func TestClearThenFlattenIsIdentity(t *testing.T) {
	base := checker(32, 24)
	e := New(32, 24)
	if err := e.SetHexColor("#00FF00"); err != nil {
		t.Fatal(err)
	}
	drawHorizontal(t, e, 12)
	e.Clear()

	got := e.Flatten(base)
	if diff := cmp.Diff(base.Pix, got.Pix); diff != "" {
		t.Errorf("flatten after clear differs from base:\n%s", diff)
	}
}

func TestFlattenComposites(t *testing.T) {
	base := checker(32, 32)
	e := New(32, 32)
	e.SetColor(color.NRGBA{R: 255, G: 255, A: 255})
	e.SetWidth(8)
	drawHorizontal(t, e, 16)

	got := e.Flatten(base)
	if got.Rect != base.Rect {
		t.Fatalf("bounds = %v, want %v", got.Rect, base.Rect)
	}
	if c := got.NRGBAAt(16, 16); c.R < 200 || c.G < 200 || c.B > 60 {
		t.Errorf("stroke pixel = %v, want yellow", c)
	}
	if got.NRGBAAt(16, 1) != base.NRGBAAt(16, 1) {
		t.Error("pixel outside the stroke changed")
	}
	if e.Overlay().NRGBAAt(16, 16).A == 0 {
		t.Error("Flatten consumed the overlay")
	}
}

func TestFlattenNilOverlay(t *testing.T) {
	base := checker(5, 5)
	got := Flatten(base, nil)
	if diff := cmp.Diff(base.Pix, got.Pix); diff != "" {
		t.Errorf("nil overlay changed pixels:\n%s", diff)
	}
}

func TestFlattenScalesOverlay(t *testing.T) {
	base := checker(40, 40)
	small := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for i := 0; i < len(small.Pix); i += 4 {
		small.Pix[i], small.Pix[i+3] = 255, 255
	}
	got := Flatten(base, small)
	if got.Rect != base.Rect {
		t.Fatalf("bounds = %v", got.Rect)
	}
	if c := got.NRGBAAt(20, 20); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("scaled overlay pixel = %v", c)
	}
}

func TestSetWidthClamps(t *testing.T) {
	e := New(1, 1)
	for _, tt := range []struct{ in, want int }{{0, 1}, {-3, 1}, {7, 7}, {25, 20}} {
		e.SetWidth(tt.in)
		if e.Width() != tt.want {
			t.Errorf("SetWidth(%d) -> %d, want %d", tt.in, e.Width(), tt.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{R: 255, A: 255}, false},
		{"#0000ff", color.NRGBA{B: 255, A: 255}, false},
		{"#0f0", color.NRGBA{G: 255, A: 255}, false},
		{"red", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseHex(%q) = %v, %v", tt.in, got, err)
		}
	}
	for _, hex := range Palette {
		if _, err := ParseHex(hex); err != nil {
			t.Errorf("palette color %q: %v", hex, err)
		}
	}
}

func TestFitViewport(t *testing.T) {
	tests := []struct {
		w, h    int
		display image.Point
	}{
		{400, 300, image.Pt(400, 300)},
		{1600, 1200, image.Pt(800, 600)},
		{1200, 1600, image.Pt(450, 600)},
		{2000, 500, image.Pt(800, 200)},
	}
	for _, tt := range tests {
		v := FitViewport(tt.w, tt.h)
		if v.Display != tt.display {
			t.Errorf("FitViewport(%d, %d) display = %v, want %v", tt.w, tt.h, v.Display, tt.display)
		}
	}

	v := FitViewport(1600, 1200)
	if p := v.ToRaster(400, 300); p != (Point{800, 600}) {
		t.Errorf("ToRaster = %v, want {800 600}", p)
	}
	if got := v.Preview(checker(1600, 1200)).Rect; got != image.Rect(0, 0, 800, 600) {
		t.Errorf("preview bounds = %v", got)
	}
}
