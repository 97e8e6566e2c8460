package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// ExportOptions returns the current export settings.
func (c *Controller) ExportOptions() (export.Options, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Export); err != nil {
		return export.Options{}, err
	}
	return c.exportOpts, nil
}

// SetExportOptions replaces the export settings.
func (c *Controller) SetExportOptions(opts export.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Export); err != nil {
		return err
	}
	if opts.Quality != 0 && (opts.Quality < export.MinQuality || opts.Quality > export.MaxQuality) {
		return fmt.Errorf("%w: %d", export.ErrQuality, opts.Quality)
	}
	c.exportOpts = opts
	return nil
}

// Compose builds the export file for the page with the current settings.
func (c *Controller) Compose() (export.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Export); err != nil {
		return export.Artifact{}, err
	}
	return c.compose()
}

func (c *Controller) compose() (export.Artifact, error) {
	img, _, err := raster.Decode(c.page().ImageData)
	if err != nil {
		return export.Artifact{}, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return export.Encode(c.doc.Name, img, c.exportOpts)
}

// Share composes the export file and hands it to the share sink.
func (c *Controller) Share(ctx context.Context) (export.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Export); err != nil {
		return export.Artifact{}, err
	}
	if c.sink == nil {
		return export.Artifact{}, fmt.Errorf("%w: no share target", ErrUnsupportedShareTarget)
	}
	a, err := c.compose()
	if err != nil {
		return export.Artifact{}, err
	}
	if err := c.sink.Share(ctx, a); err != nil {
		c.log.Warn("share failed", "documentId", c.doc.ID, "file", a.Name, "error", err)
		return export.Artifact{}, err
	}
	c.log.Info("document shared", "documentId", c.doc.ID, "file", a.Name, "sizeInBytes", len(a.Data))
	return a, nil
}

// SaveDocument persists the document and returns to the dashboard. If the
// store fails, the error wraps ErrPersistence and the export stage stays
// active with the document intact.
func (c *Controller) SaveDocument(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Export); err != nil {
		return err
	}
	if c.store == nil {
		return fmt.Errorf("%w: no store configured", ErrPersistence)
	}

	doc := c.doc.Clone()
	doc.UpdatedAt = c.now()
	logCtx := c.log.With("documentId", doc.ID)
	if err := c.store.Put(ctx, doc); err != nil {
		logCtx.Error("failed to save document", "error", err)
		if errors.Is(err, ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	c.doc.UpdatedAt = doc.UpdatedAt
	logCtx.Info("document saved")

	for _, o := range c.observers {
		if err := o.DocumentSaved(ctx, doc); err != nil {
			logCtx.Warn("save observer failed", "error", err)
		}
	}
	return c.move(Save)
}
