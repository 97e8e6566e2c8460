package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Extract runs text extraction on the page raster and stores the result.
// On failure the page keeps its previous text and the call can be retried.
func (c *Controller) Extract(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(OCR); err != nil {
		return "", err
	}
	if c.extractor == nil {
		return "", fmt.Errorf("%w: no extractor configured", ErrExtraction)
	}
	page := c.page()
	logCtx := c.log.With("documentId", c.doc.ID)

	text, err := c.extractor.Extract(ctx, page.ImageData)
	if err != nil {
		logCtx.Warn("text extraction failed", "error", err)
		if errors.Is(err, ErrExtraction) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	text = strings.TrimSpace(text)
	page.OCRText = text
	logCtx.Info("text extracted", "characters", len(text))
	return text, nil
}

// SetNotes stores free-form notes on the page.
func (c *Controller) SetNotes(notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(OCR); err != nil {
		return err
	}
	c.page().Notes = notes
	return nil
}
