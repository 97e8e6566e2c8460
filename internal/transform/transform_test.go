package transform

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// gradient has a different color at every pixel so permutations show up.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x*3 + y*5), A: 255})
		}
	}
	return img
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {90, 90}, {180, 180}, {270, 270}, {360, 0},
		{450, 90}, {-90, 270}, {-360, 0}, {-450, 270}, {100, 90}, {135, 180},
	}
	for _, tt := range tests {
		if got := NormalizeRotation(tt.in); got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRotateSwapsExtent(t *testing.T) {
	src := gradient(12, 16)
	for _, deg := range []int{0, 90, 180, 270, -90} {
		out := Rotate(src, deg)
		w, h := out.Rect.Dx(), out.Rect.Dy()
		if SwapsExtent(deg) {
			if w != 16 || h != 12 {
				t.Errorf("Rotate(%d) = %dx%d, want 16x12", deg, w, h)
			}
		} else if w != 12 || h != 16 {
			t.Errorf("Rotate(%d) = %dx%d, want 12x16", deg, w, h)
		}
	}
}

func TestRotateClockwise(t *testing.T) {
	src := gradient(3, 2)
	out := Rotate(src, 90)
	// The source's top-left pixel ends up at the top-right.
	if got, want := out.NRGBAAt(1, 0), src.NRGBAAt(0, 0); got != want {
		t.Errorf("top-right after 90° = %v, want %v", got, want)
	}
	// The source's bottom-left pixel ends up at the top-left.
	if got, want := out.NRGBAAt(0, 0), src.NRGBAAt(0, 1); got != want {
		t.Errorf("top-left after 90° = %v, want %v", got, want)
	}
}

func TestRotateOrderFour(t *testing.T) {
	src := gradient(9, 5)
	var img image.Image = src
	for i := 0; i < 4; i++ {
		img = Rotate(img, 90)
	}
	got := img.(*image.NRGBA)
	if got.Rect != src.Rect {
		t.Fatalf("bounds = %v, want %v", got.Rect, src.Rect)
	}
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("four quarter turns changed pixels (-want +got):\n%s", diff)
	}
}

func TestRenderDoesNotModifyOriginal(t *testing.T) {
	src := gradient(4, 4)
	before := append([]uint8(nil), src.Pix...)
	Render(src, Params{Rotation: 90, Brightness: 150, Contrast: 50, Filter: FilterSepia})
	if diff := cmp.Diff(before, src.Pix); diff != "" {
		t.Errorf("Render mutated its input:\n%s", diff)
	}
}

func TestRenderIdentity(t *testing.T) {
	src := gradient(6, 6)
	out := Render(src, DefaultParams())
	if diff := cmp.Diff(src.Pix, out.Pix); diff != "" {
		t.Errorf("default params changed pixels:\n%s", diff)
	}
}

func TestBWHasZeroSaturation(t *testing.T) {
	src := gradient(16, 16)
	for _, b := range []int{50, 80, 100, 130, 150} {
		for _, c := range []int{50, 100, 150} {
			out := Render(src, Params{Brightness: b, Contrast: c, Filter: FilterBW})
			for i := 0; i < len(out.Pix); i += 4 {
				if out.Pix[i] != out.Pix[i+1] || out.Pix[i+1] != out.Pix[i+2] {
					t.Fatalf("brightness %d contrast %d: pixel %d = %v is not gray", b, c, i/4, out.Pix[i:i+3])
				}
			}
		}
	}
}

func TestBrightnessDarkens(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	out := Render(src, Params{Brightness: 50, Contrast: 100})
	want := color.NRGBA{R: 100, G: 50, B: 25, A: 255}
	if got := out.NRGBAAt(0, 0); got != want {
		t.Errorf("brightness 50%% = %v, want %v", got, want)
	}
}

func TestSepiaAndEnhanced(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	out := Render(src, Params{Brightness: 100, Contrast: 100, Filter: FilterSepia})
	// White saturates the first two sepia rows.
	if got := out.NRGBAAt(0, 0); got.R != 255 || got.G != 255 || got.B != 239 {
		t.Errorf("sepia(white) = %v", got)
	}

	gray := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	gray.SetNRGBA(0, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	out = Render(gray, Params{Brightness: 100, Contrast: 100, Filter: FilterEnhanced})
	if got := out.NRGBAAt(0, 0); got.R != got.G || got.G != got.B {
		t.Errorf("enhanced(gray) = %v, want neutral", got)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"default", DefaultParams(), nil},
		{"low brightness", Params{Brightness: 49, Contrast: 100}, ErrLevelRange},
		{"high contrast", Params{Brightness: 100, Contrast: 151}, ErrLevelRange},
		{"odd rotation", Params{Rotation: 45, Brightness: 100, Contrast: 100}, ErrRotation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	for _, f := range []Filter{FilterOriginal, FilterBW, FilterEnhanced, FilterSepia} {
		got, err := ParseFilter(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFilter(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFilter("vintage"); err == nil {
		t.Error("ParseFilter accepted an unknown name")
	}
}

func TestCropBoundingBox(t *testing.T) {
	src := gradient(100, 80)
	quads := []Quad{
		DefaultQuad(100, 80),
		{TopLeft: Point{10, 5}, TopRight: Point{70, 12}, BottomLeft: Point{4, 60}, BottomRight: Point{90, 66}},
		{TopLeft: Point{30, 30}, TopRight: Point{31, 20}, BottomLeft: Point{25, 40}, BottomRight: Point{50, 35}},
	}
	for _, q := range quads {
		out, err := Crop(src, q)
		if err != nil {
			t.Fatalf("Crop(%v): %v", q, err)
		}
		wantW := max(q.TopRight.X, q.BottomRight.X) - min(q.TopLeft.X, q.BottomLeft.X)
		wantH := max(q.BottomLeft.Y, q.BottomRight.Y) - min(q.TopLeft.Y, q.TopRight.Y)
		if float64(out.Rect.Dx()) != wantW || float64(out.Rect.Dy()) != wantH {
			t.Errorf("Crop(%v) = %dx%d, want %vx%v", q, out.Rect.Dx(), out.Rect.Dy(), wantW, wantH)
		}
		r := q.Bounds()
		if got, want := out.NRGBAAt(0, 0), src.NRGBAAt(r.Min.X, r.Min.Y); got != want {
			t.Errorf("Crop(%v) origin pixel = %v, want %v", q, got, want)
		}
	}
}

func TestCropFullBoundsIdempotent(t *testing.T) {
	src := gradient(33, 21)
	once, err := Crop(src, FullQuad(33, 21))
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Crop(once, FullQuad(33, 21))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src.Pix, twice.Pix); diff != "" {
		t.Errorf("full-bounds crop changed pixels:\n%s", diff)
	}
}

func TestCropDegenerate(t *testing.T) {
	src := gradient(10, 10)
	inverted := Quad{TopLeft: Point{8, 8}, TopRight: Point{2, 8}, BottomLeft: Point{8, 2}, BottomRight: Point{2, 2}}
	outside := Quad{TopLeft: Point{20, 20}, TopRight: Point{30, 20}, BottomLeft: Point{20, 30}, BottomRight: Point{30, 30}}
	for _, q := range []Quad{inverted, outside} {
		if _, err := Crop(src, q); !errors.Is(err, ErrDegenerateCrop) {
			t.Errorf("Crop(%v) error = %v, want ErrDegenerateCrop", q, err)
		}
	}
}

func TestDefaultQuad(t *testing.T) {
	want := Quad{
		TopLeft:     Point{120, 160},
		TopRight:    Point{1080, 160},
		BottomLeft:  Point{120, 1440},
		BottomRight: Point{1080, 1440},
	}
	if diff := cmp.Diff(want, DefaultQuad(1200, 1600)); diff != "" {
		t.Errorf("DefaultQuad mismatch (-want +got):\n%s", diff)
	}
}

func TestCropSessionDrag(t *testing.T) {
	s := NewCropSession(200, 100, 2)
	// Top-left sits at raster (20,10), display (40,20).
	if s.PointerDown(Point{60, 60}) {
		t.Fatal("hit a corner far from every handle")
	}
	if !s.PointerDown(Point{51, 31}) {
		t.Fatal("missed the top-left handle")
	}
	if s.Dragging() != CornerTopLeft {
		t.Fatalf("dragging %v, want topLeft", s.Dragging())
	}
	s.PointerMove(Point{10, 4})
	s.PointerUp()
	if got := s.Quad().TopLeft; got != (Point{5, 2}) {
		t.Errorf("top-left = %v, want {5 2}", got)
	}
	s.PointerMove(Point{0, 0})
	if got := s.Quad().TopLeft; got != (Point{5, 2}) {
		t.Errorf("move after release changed the quad: %v", got)
	}
}

func TestCropSessionCommitKeepsOverhangAndRejects(t *testing.T) {
	s := NewCropSession(100, 100, 1)
	s.SetQuad(Quad{TopLeft: Point{-20, -5}, TopRight: Point{140, 0}, BottomLeft: Point{0, 120}, BottomRight: Point{100, 100}})
	_, r, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if r != image.Rect(-20, -5, 140, 120) {
		t.Errorf("crop box = %v", r)
	}

	s.SetQuad(Quad{TopLeft: Point{90, 10}, TopRight: Point{10, 10}, BottomLeft: Point{90, 90}, BottomRight: Point{10, 90}})
	if _, _, err := s.Commit(); !errors.Is(err, ErrDegenerateCrop) {
		t.Errorf("crossed corners: err = %v, want ErrDegenerateCrop", err)
	}

	s.SetQuad(Quad{TopLeft: Point{150, 150}, TopRight: Point{180, 150}, BottomLeft: Point{150, 190}, BottomRight: Point{180, 190}})
	if _, _, err := s.Commit(); !errors.Is(err, ErrDegenerateCrop) {
		t.Errorf("box off the raster: err = %v, want ErrDegenerateCrop", err)
	}
}

func TestCropOverhangIsWhite(t *testing.T) {
	src := gradient(1600, 1200)
	q := DefaultQuad(1200, 1600)
	out, err := Crop(src, q)
	if err != nil {
		t.Fatal(err)
	}
	if out.Rect != image.Rect(0, 0, 960, 1280) {
		t.Fatalf("crop = %v, want 960x1280", out.Rect)
	}
	if got, want := out.NRGBAAt(0, 0), src.NRGBAAt(120, 160); got != want {
		t.Errorf("on-raster pixel = %v, want %v", got, want)
	}
	if got := out.NRGBAAt(10, 1279); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("off-raster pixel = %v, want white", got)
	}
}
