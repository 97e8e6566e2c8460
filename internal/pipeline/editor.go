package pipeline

import (
	"fmt"
	"image"

	"github.com/Lllllllleong/documentscanflow/internal/annotate"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
	"github.com/Lllllllleong/documentscanflow/internal/transform"
)

// editorSession is rebuilt on every entry to the editor, so parameters
// always start neutral. Renders start from base, the page raster as it was
// on entry, so rotation and flattened markup from earlier passes survive.
type editorSession struct {
	base    image.Image
	working image.Image // what the editor shows
	params  transform.Params
	crop    *transform.CropSession
}

func newEditorSession(doc *models.Document) (*editorSession, error) {
	if doc == nil || doc.FirstPage() == nil {
		return nil, ErrNoDocument
	}
	working, _, err := raster.Decode(doc.FirstPage().ImageData)
	if err != nil {
		return nil, fmt.Errorf("%w: page raster: %v", ErrDecodeFailure, err)
	}
	return &editorSession{
		base:    working,
		working: working,
		params:  transform.DefaultParams(),
	}, nil
}

// EditorParams returns the current transform parameters.
func (c *Controller) EditorParams() (transform.Params, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Editor); err != nil {
		return transform.Params{}, err
	}
	return c.editor.params, nil
}

// Rotate turns the page by delta degrees, normally ±90.
func (c *Controller) Rotate(delta int) error {
	return c.updateParams(func(p *transform.Params) error {
		p.Rotation = transform.NormalizeRotation(p.Rotation + delta)
		return nil
	})
}

// SetRotation sets an absolute rotation.
func (c *Controller) SetRotation(deg int) error {
	return c.updateParams(func(p *transform.Params) error {
		p.Rotation = transform.NormalizeRotation(deg)
		return nil
	})
}

// SetBrightness sets brightness in percent, 50 to 150.
func (c *Controller) SetBrightness(v int) error {
	return c.updateParams(func(p *transform.Params) error {
		p.Brightness = v
		return nil
	})
}

// SetContrast sets contrast in percent, 50 to 150.
func (c *Controller) SetContrast(v int) error {
	return c.updateParams(func(p *transform.Params) error {
		p.Contrast = v
		return nil
	})
}

// SetFilter selects the named color filter.
func (c *Controller) SetFilter(f transform.Filter) error {
	return c.updateParams(func(p *transform.Params) error {
		p.Filter = f
		return nil
	})
}

// updateParams applies fn, re-renders the page from the session base and
// stores the result as the page raster. Invalid parameters leave everything
// as it was.
func (c *Controller) updateParams(fn func(*transform.Params) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Editor); err != nil {
		return err
	}
	p := c.editor.params
	if err := fn(&p); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	out := transform.Render(c.editor.base, p)
	data, err := encodePage(out)
	if err != nil {
		return err
	}
	if out.Rect.Size() != c.editor.working.Bounds().Size() {
		c.editor.crop = nil
	}
	c.editor.params = p
	c.editor.working = out
	c.page().ImageData = data
	return nil
}

// EnterCropMode places the default quadrilateral on the working raster. The
// hit test runs in display pixels of the fitted editor view.
func (c *Controller) EnterCropMode() (transform.Quad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Editor); err != nil {
		return transform.Quad{}, err
	}
	b := c.editor.working.Bounds()
	vp := annotate.FitViewport(b.Dx(), b.Dy())
	scale := float64(vp.Display.X) / float64(vp.Raster.X)
	c.editor.crop = transform.NewCropSession(b.Dx(), b.Dy(), scale)
	return c.editor.crop.Quad(), nil
}

// InCropMode reports whether a crop is being edited.
func (c *Controller) InCropMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage == Editor && c.editor != nil && c.editor.crop != nil
}

func (c *Controller) cropSession() (*transform.CropSession, error) {
	if err := c.require(Editor); err != nil {
		return nil, err
	}
	if c.editor.crop == nil {
		return nil, fmt.Errorf("%w: not in crop mode", ErrWrongStage)
	}
	return c.editor.crop, nil
}

// CropPointerDown starts a corner drag at a display position and reports
// whether a handle was hit.
func (c *Controller) CropPointerDown(display transform.Point) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return false, err
	}
	return s.PointerDown(display), nil
}

// CropPointerMove drags the active corner.
func (c *Controller) CropPointerMove(display transform.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return err
	}
	s.PointerMove(display)
	return nil
}

// CropPointerUp ends a drag.
func (c *Controller) CropPointerUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return err
	}
	s.PointerUp()
	return nil
}

// SetCropQuad replaces the quadrilateral, in raster pixels.
func (c *Controller) SetCropQuad(q transform.Quad) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return err
	}
	s.SetQuad(q)
	return nil
}

// CropQuad returns the quadrilateral being edited.
func (c *Controller) CropQuad() (transform.Quad, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return transform.Quad{}, err
	}
	return s.Quad(), nil
}

// CommitCrop cuts the quad's bounding box out of the working raster. The
// result becomes both the page raster and its new original, parameters
// return to neutral and crop mode ends. This cannot be undone.
func (c *Controller) CommitCrop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.cropSession()
	if err != nil {
		return err
	}
	q, _, err := s.Commit()
	if err != nil {
		return err
	}
	out, err := transform.Crop(c.editor.working, q)
	if err != nil {
		return err
	}
	data, err := encodePage(out)
	if err != nil {
		return err
	}

	page := c.page()
	page.OriginalImageData = data
	page.ImageData = data
	c.editor.base = out
	c.editor.working = out
	c.editor.params = transform.DefaultParams()
	c.editor.crop = nil

	c.log.Info("crop committed", "documentId", c.doc.ID, "width", out.Rect.Dx(), "height", out.Rect.Dy())
	return nil
}

// CancelCrop leaves crop mode and discards the quadrilateral.
func (c *Controller) CancelCrop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Editor); err != nil {
		return err
	}
	c.editor.crop = nil
	return nil
}
