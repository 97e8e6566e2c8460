package annotate

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Largest on-screen size of the markup canvas.
const (
	MaxDisplayWidth  = 800
	MaxDisplayHeight = 600
)

// Viewport maps client (display) coordinates onto overlay pixels. Pointer
// and touch events both go through ToRaster, so they produce the same point
// stream.
type Viewport struct {
	Raster  image.Point // overlay size
	Display image.Point // on-screen size
}

// FitViewport shrinks a width x height raster to fit the markup canvas,
// keeping its aspect ratio. Rasters that already fit are shown 1:1.
func FitViewport(width, height int) Viewport {
	scale := math.Min(1, math.Min(
		MaxDisplayWidth/float64(width),
		MaxDisplayHeight/float64(height),
	))
	return Viewport{
		Raster: image.Pt(width, height),
		Display: image.Pt(
			max(1, int(math.Round(float64(width)*scale))),
			max(1, int(math.Round(float64(height)*scale))),
		),
	}
}

// ToRaster converts a client position to overlay pixels.
func (v Viewport) ToRaster(clientX, clientY float64) Point {
	if v.Display.X == 0 || v.Display.Y == 0 {
		return Point{clientX, clientY}
	}
	return Point{
		X: clientX * float64(v.Raster.X) / float64(v.Display.X),
		Y: clientY * float64(v.Raster.Y) / float64(v.Display.Y),
	}
}

// Preview renders img at the display size.
func (v Viewport) Preview(img image.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rectangle{Max: v.Display})
	xdraw.CatmullRom.Scale(out, out.Rect, img, img.Bounds(), xdraw.Src, nil)
	return out
}
