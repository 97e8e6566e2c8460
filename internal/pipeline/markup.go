package pipeline

import (
	"image"

	"github.com/Lllllllleong/documentscanflow/internal/annotate"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// markupSession holds the overlay for one visit to the markup stage. engine
// is nil when the page raster could not be decoded; the stage still works
// but has nothing to draw on.
type markupSession struct {
	base     image.Image
	engine   *annotate.Engine
	viewport annotate.Viewport
}

func (c *Controller) newMarkupSession() *markupSession {
	s := &markupSession{}
	page := c.page()
	if page == nil {
		return s
	}
	base, _, err := raster.Decode(page.ImageData)
	if err != nil {
		c.log.Error("markup surface unavailable", "documentId", c.doc.ID, "error", err)
		return s
	}
	b := base.Bounds()
	s.base = base
	s.engine = annotate.New(b.Dx(), b.Dy())
	s.viewport = annotate.FitViewport(b.Dx(), b.Dy())
	return s
}

func (c *Controller) markupEngine() (*annotate.Engine, error) {
	if err := c.require(Markup); err != nil {
		return nil, err
	}
	if c.markup == nil || c.markup.engine == nil {
		return nil, ErrNoSurface
	}
	return c.markup.engine, nil
}

// MarkupViewport returns the mapping between client and overlay pixels.
func (c *Controller) MarkupViewport() (annotate.Viewport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.markupEngine(); err != nil {
		return annotate.Viewport{}, err
	}
	return c.markup.viewport, nil
}

// SetTool selects pen or eraser.
func (c *Controller) SetTool(t annotate.Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	e.SetTool(t)
	return nil
}

// SetPenColor takes a "#rrggbb" or "#rgb" color.
func (c *Controller) SetPenColor(hex string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	return e.SetHexColor(hex)
}

// SetBrushWidth sets the stroke diameter, clamped to 1..20 px.
func (c *Controller) SetBrushWidth(w int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	e.SetWidth(w)
	return nil
}

// StrokeBegin, StrokeMove and StrokeEnd take client coordinates from either
// pointer or touch events.
func (c *Controller) StrokeBegin(clientX, clientY float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	e.BeginStroke(c.markup.viewport.ToRaster(clientX, clientY))
	return nil
}

func (c *Controller) StrokeMove(clientX, clientY float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	return e.ExtendStroke(c.markup.viewport.ToRaster(clientX, clientY))
}

func (c *Controller) StrokeEnd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	e.EndStroke()
	return nil
}

// ClearMarkup erases every stroke not yet saved.
func (c *Controller) ClearMarkup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	e.Clear()
	return nil
}

// SaveMarkup flattens the strokes into the page raster. Without a surface
// it returns ErrNoSurface and the page is untouched.
func (c *Controller) SaveMarkup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Markup); err != nil {
		return err
	}
	return c.flattenMarkup()
}

func (c *Controller) flattenMarkup() error {
	e, err := c.markupEngine()
	if err != nil {
		return err
	}
	if e.Empty() {
		return nil
	}
	out := e.Flatten(c.markup.base)
	data, err := encodePage(out)
	if err != nil {
		return err
	}
	c.page().ImageData = data
	c.markup.base = out
	e.Clear()
	return nil
}
