// Package export lays a page raster out on a paper-sized page and encodes
// the result for download or sharing.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// PageSize is a paper format.
type PageSize int

const (
	A4 PageSize = iota
	Letter
	Legal
)

// Page dimensions in points (1/72 in), portrait.
var pageDims = map[PageSize]image.Point{
	A4:     {595, 842},
	Letter: {612, 792},
	Legal:  {612, 1008},
}

func (s PageSize) String() string {
	switch s {
	case Letter:
		return "Letter"
	case Legal:
		return "Legal"
	}
	return "A4"
}

// ParsePageSize is case-insensitive; an empty string selects A4.
func ParsePageSize(s string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	case "legal":
		return Legal, nil
	}
	return A4, fmt.Errorf("unknown page size %q", s)
}

// Orientation of the page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// ParseOrientation is case-insensitive; an empty string selects portrait.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	}
	return Portrait, fmt.Errorf("unknown orientation %q", s)
}

// Dimensions returns the page size in points; landscape swaps the sides.
func Dimensions(size PageSize, o Orientation) image.Point {
	d, ok := pageDims[size]
	if !ok {
		d = pageDims[A4]
	}
	if o == Landscape {
		d.X, d.Y = d.Y, d.X
	}
	return d
}

// Placement is where the image lands on the page, in page pixels.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// Rect rounds the placement to whole pixels.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(p.X)), int(math.Round(p.Y)),
		int(math.Round(p.X+p.Width)), int(math.Round(p.Y+p.Height)),
	)
}

// Place scales an img-sized box to the page. An image relatively wider
// than the page spans the page width and is centered vertically; otherwise
// it spans the page height and is centered horizontally.
func Place(img, page image.Point) Placement {
	imgAspect := float64(img.X) / float64(img.Y)
	pageAspect := float64(page.X) / float64(page.Y)
	if imgAspect > pageAspect {
		h := float64(page.X) / imgAspect
		return Placement{X: 0, Y: (float64(page.Y) - h) / 2, Width: float64(page.X), Height: h}
	}
	w := float64(page.Y) * imgAspect
	return Placement{X: (float64(page.X) - w) / 2, Y: 0, Width: w, Height: float64(page.Y)}
}

// Fit draws img onto a white page of the given geometry and returns the page
// raster with the placement used.
func Fit(img image.Image, size PageSize, o Orientation) (*image.NRGBA, Placement) {
	dims := Dimensions(size, o)
	page := image.NewNRGBA(image.Rectangle{Max: dims})
	draw.Draw(page, page.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)

	b := img.Bounds()
	if b.Empty() {
		return page, Placement{}
	}
	pl := Place(b.Size(), dims)
	xdraw.CatmullRom.Scale(page, pl.Rect(), img, b, xdraw.Over, nil)
	return page, pl
}
