package transform

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
)

// ErrDegenerateCrop is returned when a quadrilateral encloses no pixels.
var ErrDegenerateCrop = errors.New("transform: crop has zero or negative area")

// DefaultMargin is the inset used to place the initial crop corners.
const DefaultMargin = 0.10

// Point is a position in raster pixel space.
type Point struct {
	X, Y float64
}

// Quad is the crop quadrilateral. It is not re-validated while corners are
// dragged; Check and Bounds are applied only when a crop is committed.
type Quad struct {
	TopLeft     Point
	TopRight    Point
	BottomLeft  Point
	BottomRight Point
}

// DefaultQuad insets each corner by 10% of the raster's width and height.
// It is a fixed heuristic, not content-aware edge detection.
func DefaultQuad(width, height int) Quad {
	w, h := float64(width), float64(height)
	left, right := w*DefaultMargin, w*(1-DefaultMargin)
	top, bottom := h*DefaultMargin, h*(1-DefaultMargin)
	return Quad{
		TopLeft:     Point{left, top},
		TopRight:    Point{right, top},
		BottomLeft:  Point{left, bottom},
		BottomRight: Point{right, bottom},
	}
}

// FullQuad covers the whole raster.
func FullQuad(width, height int) Quad {
	w, h := float64(width), float64(height)
	return Quad{
		TopLeft:     Point{0, 0},
		TopRight:    Point{w, 0},
		BottomLeft:  Point{0, h},
		BottomRight: Point{w, h},
	}
}

// Bounds is the axis-aligned box enclosing q: the horizontal span runs from
// the leftmost left corner to the rightmost right corner, the vertical span
// from the highest top corner to the lowest bottom corner. Skew is enclosed,
// not corrected.
func (q Quad) Bounds() image.Rectangle {
	minX := math.Min(q.TopLeft.X, q.BottomLeft.X)
	maxX := math.Max(q.TopRight.X, q.BottomRight.X)
	minY := math.Min(q.TopLeft.Y, q.TopRight.Y)
	maxY := math.Max(q.BottomLeft.Y, q.BottomRight.Y)
	return image.Rectangle{
		Min: image.Pt(int(math.Round(minX)), int(math.Round(minY))),
		Max: image.Pt(int(math.Round(maxX)), int(math.Round(maxY))),
	}
}

// Check rejects boxes with zero or negative area and boxes that miss the
// width x height raster entirely.
func (q Quad) Check(width, height int) (image.Rectangle, error) {
	r := q.Bounds()
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return r, fmt.Errorf("%w: %v", ErrDegenerateCrop, r)
	}
	if !r.Overlaps(image.Rect(0, 0, width, height)) {
		return r, fmt.Errorf("%w: %v outside %dx%d", ErrDegenerateCrop, r, width, height)
	}
	return r, nil
}

// Crop extracts the bounding box of q from img. The result always has the
// box's size; any part of the box beyond the raster is filled white.
func Crop(img image.Image, q Quad) (*image.NRGBA, error) {
	b := img.Bounds()
	r, err := q.Check(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	src := r.Add(b.Min)
	if !src.In(b) {
		draw.Draw(out, out.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	// The part of the box that lies on the raster, in output coordinates.
	in := src.Intersect(b)
	draw.Draw(out, in.Sub(src.Min), img, in.Min, draw.Src)
	return out, nil
}
