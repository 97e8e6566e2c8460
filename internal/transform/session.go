package transform

import (
	"image"
	"math"
)

// HandleRadius is the corner hit distance in display pixels.
const HandleRadius = 12.0

// Corner identifies one vertex of a Quad.
type Corner int

const (
	NoCorner Corner = iota
	CornerTopLeft
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

func (c Corner) String() string {
	switch c {
	case CornerTopLeft:
		return "topLeft"
	case CornerTopRight:
		return "topRight"
	case CornerBottomLeft:
		return "bottomLeft"
	case CornerBottomRight:
		return "bottomRight"
	}
	return "none"
}

// hitOrder is the order corners are tested in when handles overlap.
var hitOrder = []Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight}

// CropSession tracks the crop quadrilateral while the user drags its
// corners. Pointer positions arrive in display pixels; Scale is the number
// of display pixels per raster pixel.
type CropSession struct {
	width, height int
	scale         float64
	quad          Quad
	dragging      Corner
}

// NewCropSession places the default quad on a width x height raster.
func NewCropSession(width, height int, scale float64) *CropSession {
	if scale <= 0 {
		scale = 1
	}
	return &CropSession{
		width:  width,
		height: height,
		scale:  scale,
		quad:   DefaultQuad(width, height),
	}
}

// Quad returns the current, unvalidated quadrilateral.
func (s *CropSession) Quad() Quad { return s.quad }

// SetQuad replaces the quadrilateral, e.g. from a client that edits corners
// numerically.
func (s *CropSession) SetQuad(q Quad) { s.quad = q }

// Dragging returns the corner being dragged, or NoCorner.
func (s *CropSession) Dragging() Corner { return s.dragging }

func (s *CropSession) toRaster(p Point) Point {
	return Point{X: p.X / s.scale, Y: p.Y / s.scale}
}

func (s *CropSession) corner(c Corner) *Point {
	switch c {
	case CornerTopLeft:
		return &s.quad.TopLeft
	case CornerTopRight:
		return &s.quad.TopRight
	case CornerBottomLeft:
		return &s.quad.BottomLeft
	case CornerBottomRight:
		return &s.quad.BottomRight
	}
	return nil
}

// PointerDown starts dragging the first corner whose square handle contains
// the display position. It reports whether a corner was hit.
func (s *CropSession) PointerDown(display Point) bool {
	for _, c := range hitOrder {
		p := s.corner(c)
		dx := math.Abs(display.X - p.X*s.scale)
		dy := math.Abs(display.Y - p.Y*s.scale)
		if dx <= HandleRadius && dy <= HandleRadius {
			s.dragging = c
			return true
		}
	}
	return false
}

// PointerMove sets the dragged corner to the pointer position. Corners are
// neither clamped nor reordered here.
func (s *CropSession) PointerMove(display Point) {
	if p := s.corner(s.dragging); p != nil {
		*p = s.toRaster(display)
	}
}

// PointerUp ends any drag.
func (s *CropSession) PointerUp() {
	s.dragging = NoCorner
}

// Commit returns the quad and its crop box. Corners may lie outside the
// raster; boxes with no area or no overlap with the raster are rejected.
func (s *CropSession) Commit() (Quad, image.Rectangle, error) {
	r, err := s.quad.Check(s.width, s.height)
	return s.quad, r, err
}
