package transform

import (
	"image"
	"math"

	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// Render rotates original around its center and applies the tonal
// adjustment followed by the named filter. The result is a fresh raster;
// original is not modified.
func Render(original image.Image, p Params) *image.NRGBA {
	out := Rotate(original, p.Rotation)
	applyTone(out, p)
	return out
}

// Rotate turns img clockwise by deg, snapped to a quarter turn. Quarter
// turns are exact pixel permutations, so four 90° turns give back img.
func Rotate(img image.Image, deg int) *image.NRGBA {
	src := raster.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	deg = NormalizeRotation(deg)
	if deg == 0 {
		return src
	}

	var dst *image.NRGBA
	if deg == 180 {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
	}
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sx, sy int
			switch deg {
			case 90:
				sx, sy = y, h-1-x
			case 180:
				sx, sy = w-1-x, h-1-y
			case 270:
				sx, sy = w-1-y, x
			}
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// colorMatrix is a 3x3 RGB matrix in the layout of the CSS filter effects.
type colorMatrix [3][3]float64

func saturateMatrix(s float64) colorMatrix {
	return colorMatrix{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}
}

var (
	grayscaleMatrix = colorMatrix{
		{0.2126, 0.7152, 0.0722},
		{0.2126, 0.7152, 0.0722},
		{0.2126, 0.7152, 0.0722},
	}
	sepiaMatrix = colorMatrix{
		{0.393, 0.769, 0.189},
		{0.349, 0.686, 0.168},
		{0.272, 0.534, 0.131},
	}
	enhancedSaturation = saturateMatrix(1.2)
)

const enhancedContrast = 1.10

func (m *colorMatrix) apply(r, g, b float64) (float64, float64, float64) {
	return clamp01(m[0][0]*r + m[0][1]*g + m[0][2]*b),
		clamp01(m[1][0]*r + m[1][1]*g + m[1][2]*b),
		clamp01(m[2][0]*r + m[2][1]*g + m[2][2]*b)
}

// toneTable maps one 8-bit channel through brightness then contrast, each
// clamped the way chained CSS filters are.
func toneTable(brightness, contrast float64) *[256]float64 {
	var t [256]float64
	for i := range t {
		v := clamp01(float64(i) / 255 * brightness)
		t[i] = contrastOf(v, contrast)
	}
	return &t
}

func contrastOf(v, c float64) float64 {
	return clamp01((v-0.5)*c + 0.5)
}

func applyTone(img *image.NRGBA, p Params) {
	brightness := float64(p.Brightness) / 100
	contrast := float64(p.Contrast) / 100
	if p.Brightness == 0 && p.Contrast == 0 {
		// zero-value Params behave like DefaultParams
		brightness, contrast = 1, 1
	}
	if brightness == 1 && contrast == 1 && p.Filter == FilterOriginal {
		return
	}
	table := toneTable(brightness, contrast)

	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b := table[img.Pix[i]], table[img.Pix[i+1]], table[img.Pix[i+2]]
		switch p.Filter {
		case FilterBW:
			r, g, b = grayscaleMatrix.apply(r, g, b)
		case FilterSepia:
			r, g, b = sepiaMatrix.apply(r, g, b)
		case FilterEnhanced:
			r, g, b = enhancedSaturation.apply(r, g, b)
			r, g, b = contrastOf(r, enhancedContrast), contrastOf(g, enhancedContrast), contrastOf(b, enhancedContrast)
		}
		img.Pix[i] = to8(r)
		img.Pix[i+1] = to8(g)
		img.Pix[i+2] = to8(b)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
