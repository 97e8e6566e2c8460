// Package annotate holds the freehand markup layer drawn over a page.
//
// Strokes are rasterized with gg into a coverage mask and composited onto a
// transparent overlay by hand: the pen uses source-over in the active color,
// the eraser uses destination-out and ignores the color. The overlay is
// merged into the page only when Flatten is called.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// Tool selects how a stroke is composited.
type Tool int

const (
	Pen Tool = iota
	Eraser
)

func (t Tool) String() string {
	if t == Eraser {
		return "eraser"
	}
	return "pen"
}

// Brush limits, in pixels.
const (
	MinWidth     = 1
	MaxWidth     = 20
	DefaultWidth = 3
)

// Palette is the set of preset pen colors offered by the markup stage.
var Palette = []string{"#000000", "#FF0000", "#00FF00", "#0000FF", "#FFFF00"}

// Point is a position in overlay pixels.
type Point struct {
	X, Y float64
}

// Engine owns one overlay and the active tool settings.
type Engine struct {
	overlay *image.NRGBA
	tool    Tool
	color   color.NRGBA
	width   int

	drawing bool
	last    Point
}

// New returns an engine with a fully transparent width x height overlay,
// a black pen and the default brush width.
func New(width, height int) *Engine {
	e := &Engine{
		tool:  Pen,
		color: color.NRGBA{A: 255},
		width: DefaultWidth,
	}
	e.Reset(width, height)
	return e
}

// Reset discards the overlay and allocates a transparent one of the given
// size. Tool settings are kept.
func (e *Engine) Reset(width, height int) {
	e.overlay = image.NewNRGBA(image.Rect(0, 0, width, height))
	e.drawing = false
}

// Overlay returns the overlay raster. Callers must not modify it.
func (e *Engine) Overlay() *image.NRGBA { return e.overlay }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// SetTool selects the pen or the eraser.
func (e *Engine) SetTool(t Tool) { e.tool = t }

// Width returns the brush diameter.
func (e *Engine) Width() int { return e.width }

// SetWidth sets the brush diameter, clamped to 1..20.
func (e *Engine) SetWidth(w int) {
	e.width = max(MinWidth, min(MaxWidth, w))
}

// Color returns the pen color.
func (e *Engine) Color() color.NRGBA { return e.color }

// SetColor sets the pen color.
func (e *Engine) SetColor(c color.Color) {
	e.color = color.NRGBAModel.Convert(c).(color.NRGBA)
}

// SetHexColor parses "#RRGGBB" or "#RGB".
func (e *Engine) SetHexColor(hex string) error {
	c, err := ParseHex(hex)
	if err != nil {
		return err
	}
	e.color = c
	return nil
}

// ParseHex parses a CSS-style hex color.
func ParseHex(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// BeginStroke records the starting point of a stroke. Nothing is drawn
// until the stroke is extended.
func (e *Engine) BeginStroke(p Point) {
	e.drawing = true
	e.last = p
}

// ExtendStroke draws a segment from the previous point to p with the active
// tool. It is ignored outside a stroke.
func (e *Engine) ExtendStroke(p Point) error {
	if !e.drawing {
		return nil
	}
	if err := e.segment(e.last, p); err != nil {
		return err
	}
	e.last = p
	return nil
}

// EndStroke finishes the current stroke.
func (e *Engine) EndStroke() { e.drawing = false }

// Drawing reports whether a stroke is in progress.
func (e *Engine) Drawing() bool { return e.drawing }

// Clear makes the overlay fully transparent again. It cannot be undone.
func (e *Engine) Clear() {
	clear(e.overlay.Pix)
}

// Empty reports whether the overlay has no visible pixel.
func (e *Engine) Empty() bool {
	for i := 3; i < len(e.overlay.Pix); i += 4 {
		if e.overlay.Pix[i] != 0 {
			return false
		}
	}
	return true
}

// Flatten merges the overlay onto base. See the package-level Flatten.
func (e *Engine) Flatten(base image.Image) *image.NRGBA {
	return Flatten(base, e.overlay)
}

// segment rasterizes one round-capped line into a mask covering just the
// segment's bounding box, then composites it onto the overlay.
func (e *Engine) segment(a, b Point) error {
	r := float64(e.width) / 2
	box := image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-r-1)),
		int(math.Floor(math.Min(a.Y, b.Y)-r-1)),
		int(math.Ceil(math.Max(a.X, b.X)+r+1)),
		int(math.Ceil(math.Max(a.Y, b.Y)+r+1)),
	).Intersect(e.overlay.Rect)
	if box.Empty() {
		return nil
	}

	dc := gg.NewContext(box.Dx(), box.Dy())
	defer dc.Close()
	dc.SetColor(color.White)
	dc.SetLineWidth(float64(e.width))
	dc.SetLineCap(gg.LineCapRound)

	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	var err error
	if a == b {
		dc.DrawCircle(a.X-ox, a.Y-oy, r)
		err = dc.Fill()
	} else {
		dc.DrawLine(a.X-ox, a.Y-oy, b.X-ox, b.Y-oy)
		err = dc.Stroke()
	}
	if err != nil {
		return fmt.Errorf("rasterize %s stroke: %w", e.tool, err)
	}

	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(mask, mask.Rect, dc.Image(), image.Point{}, draw.Src)

	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			cov := mask.Pix[mask.PixOffset(x, y)]
			if cov == 0 {
				continue
			}
			i := e.overlay.PixOffset(box.Min.X+x, box.Min.Y+y)
			px := e.overlay.Pix[i : i+4 : i+4]
			if e.tool == Eraser {
				destinationOut(px, cov)
			} else {
				sourceOver(px, e.color, cov)
			}
		}
	}
	return nil
}

// sourceOver composites c, scaled by coverage, over the non-premultiplied
// pixel px.
func sourceOver(px []uint8, c color.NRGBA, cov uint8) {
	sa := float64(c.A) / 255 * float64(cov) / 255
	da := float64(px[3]) / 255
	oa := sa + da*(1-sa)
	if oa == 0 {
		return
	}
	blend := func(s, d uint8) uint8 {
		v := (float64(s)*sa + float64(d)*da*(1-sa)) / oa
		return uint8(math.Round(v))
	}
	px[0] = blend(c.R, px[0])
	px[1] = blend(c.G, px[1])
	px[2] = blend(c.B, px[2])
	px[3] = uint8(math.Round(oa * 255))
}

// destinationOut removes coverage from the pixel's alpha.
func destinationOut(px []uint8, cov uint8) {
	a := float64(px[3]) * (1 - float64(cov)/255)
	px[3] = uint8(math.Round(a))
	if px[3] == 0 {
		px[0], px[1], px[2] = 0, 0, 0
	}
}
