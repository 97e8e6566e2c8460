package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// Config wires a Controller to its collaborators. Only Store is required.
type Config struct {
	Store     Store
	Camera    Camera
	Extractor Extractor
	Sink      ShareSink
	Observers []SaveObserver
	Logger    *slog.Logger
	Now       func() time.Time
}

// Controller is the stage machine. It owns at most one document at a time,
// and that document is only mutated through the operations of the active
// stage. All methods are safe for concurrent use; calls are serialized, so
// the last completed edit is the one reflected on the page.
type Controller struct {
	mu sync.Mutex

	store     Store
	camera    Camera
	extractor Extractor
	sink      ShareSink
	observers []SaveObserver
	log       *slog.Logger
	now       func() time.Time

	stage  Stage
	doc    *models.Document
	stream CameraStream

	editor     *editorSession
	markup     *markupSession
	exportOpts export.Options
}

// New returns a controller at the dashboard.
func New(cfg Config) *Controller {
	c := &Controller{
		store:     cfg.Store,
		camera:    cfg.Camera,
		extractor: cfg.Extractor,
		sink:      cfg.Sink,
		observers: cfg.Observers,
		log:       cfg.Logger,
		now:       cfg.Now,
		stage:     Dashboard,
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Stage returns the active stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Document returns a copy of the open document.
func (c *Controller) Document() (models.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return models.Document{}, false
	}
	return c.doc.Clone(), true
}

// Rename sets the open document's name.
func (c *Controller) Rename(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc == nil {
		return ErrNoDocument
	}
	if name == "" {
		name = models.DefaultDocumentName
	}
	c.doc.Name = name
	return nil
}

// Reset abandons whatever is in progress and returns to the dashboard.
// Unsaved edits are dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != Dashboard {
		c.log.Info("pipeline reset", "from", c.stage)
	}
	c.stopCamera()
	c.leave(c.stage)
	c.doc = nil
	c.stage = Dashboard
}

// Next advances Editor to Markup, Markup to OCR and OCR to Export. Leaving
// Markup flattens any strokes into the page first.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage == Markup && c.markup != nil {
		if err := c.flattenMarkup(); err != nil && !errors.Is(err, ErrNoSurface) {
			return err
		}
	}
	return c.move(Next)
}

// Back returns to the previous stage. The document travels back unchanged;
// stage-local state such as editor parameters or unsaved strokes is dropped.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.move(Back)
}

// move performs a transition. c.mu must be held. Entering a stage may fail,
// in which case the stage is unchanged.
func (c *Controller) move(e Event) error {
	from := c.stage
	to, err := Transition(from, e)
	if err != nil {
		return err
	}
	if err := c.enter(to); err != nil {
		return err
	}
	c.leave(from)
	if to == Dashboard {
		c.doc = nil
	}
	c.stage = to

	logCtx := c.log.With("from", from, "to", to, "event", e)
	if c.doc != nil {
		logCtx = logCtx.With("documentId", c.doc.ID)
	}
	logCtx.Info("stage transition")
	return nil
}

func (c *Controller) enter(s Stage) error {
	switch s {
	case Editor:
		ed, err := newEditorSession(c.doc)
		if err != nil {
			return err
		}
		c.editor = ed
	case Markup:
		c.markup = c.newMarkupSession()
	case Export:
		c.exportOpts = export.DefaultOptions()
	}
	return nil
}

func (c *Controller) leave(s Stage) {
	switch s {
	case Scanner:
		c.stopCamera()
	case Editor:
		c.editor = nil
	case Markup:
		c.markup = nil
	}
}

func (c *Controller) require(s Stage) error {
	if c.stage != s {
		return fmt.Errorf("%w: in %v, need %v", ErrWrongStage, c.stage, s)
	}
	if c.doc == nil && s != Dashboard && s != Scanner {
		return ErrNoDocument
	}
	return nil
}

// Canvas returns what the active stage shows: the working raster in the
// editor, the page with pending strokes in markup and the current page
// raster elsewhere.
func (c *Controller) Canvas() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.stage == Editor && c.editor != nil:
		return raster.ToNRGBA(c.editor.working), nil
	case c.stage == Markup && c.markup != nil && c.markup.engine != nil:
		return c.markup.engine.Flatten(c.markup.base), nil
	}
	page := c.page()
	if page == nil {
		return nil, ErrNoDocument
	}
	img, _, err := raster.Decode(page.ImageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return img, nil
}

func (c *Controller) page() *models.Page {
	if c.doc == nil {
		return nil
	}
	return c.doc.FirstPage()
}

// encodePage encodes a working raster the way every page raster is stored.
func encodePage(img image.Image) ([]byte, error) {
	return raster.EncodeJPEG(img, raster.DefaultQuality)
}
