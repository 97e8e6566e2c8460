package annotate

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// Flatten draws base and then overlay into a fresh raster the size of base.
// Overlay pixels with zero alpha leave base untouched, so an empty overlay
// yields a pixel-identical copy of base. An overlay of a different size is
// resampled to base's extent first.
func Flatten(base image.Image, overlay *image.NRGBA) *image.NRGBA {
	out := raster.ToNRGBA(base)
	if overlay == nil {
		return out
	}
	if overlay.Rect.Size() != out.Rect.Size() {
		scaled := image.NewNRGBA(out.Rect)
		xdraw.BiLinear.Scale(scaled, scaled.Rect, overlay, overlay.Rect, xdraw.Src, nil)
		overlay = scaled
	}
	for i := 0; i+3 < len(out.Pix); i += 4 {
		a := overlay.Pix[i+3]
		if a == 0 {
			continue
		}
		c := color.NRGBA{R: overlay.Pix[i], G: overlay.Pix[i+1], B: overlay.Pix[i+2], A: a}
		sourceOver(out.Pix[i:i+4:i+4], c, 255)
	}
	return out
}
