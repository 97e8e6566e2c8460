package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
	"github.com/Lllllllleong/documentscanflow/internal/transform"
)

// ScanOptions control the unattended editor pass of an ingested image.
type ScanOptions struct {
	Name     string
	Filter   transform.Filter
	AutoCrop bool // crop to the default 10% inset quadrilateral
}

// RunScan drives c from the dashboard through every stage with an uploaded
// image and saves the result. Extraction failures are logged and the scan is
// saved without text. On any other error c is reset and nothing is stored.
func RunScan(ctx context.Context, c *pipeline.Controller, data []byte, mimeType string, opts ScanOptions) (models.Document, error) {
	doc, err := runScan(ctx, c, data, mimeType, opts)
	if err != nil {
		c.Reset()
		return models.Document{}, err
	}
	return doc, nil
}

func runScan(ctx context.Context, c *pipeline.Controller, data []byte, mimeType string, opts ScanOptions) (models.Document, error) {
	if err := c.NewScan(); err != nil {
		return models.Document{}, err
	}
	if err := c.Upload(data, mimeType); err != nil {
		return models.Document{}, err
	}
	if err := c.Rename(opts.Name); err != nil {
		return models.Document{}, err
	}

	// Editor
	if opts.Filter != transform.FilterOriginal {
		if err := c.SetFilter(opts.Filter); err != nil {
			return models.Document{}, err
		}
	}
	if opts.AutoCrop {
		if _, err := c.EnterCropMode(); err != nil {
			return models.Document{}, err
		}
		if err := c.CommitCrop(); err != nil {
			return models.Document{}, err
		}
	}
	if err := c.Next(); err != nil {
		return models.Document{}, err
	}

	// Markup has nothing to draw.
	if err := c.Next(); err != nil {
		return models.Document{}, err
	}

	// OCR
	if _, err := c.Extract(ctx); err != nil {
		if !errors.Is(err, pipeline.ErrExtraction) {
			return models.Document{}, err
		}
		slog.Warn("Saving scan without text", "error", err)
	}
	if err := c.Next(); err != nil {
		return models.Document{}, err
	}

	doc, ok := c.Document()
	if !ok {
		return models.Document{}, pipeline.ErrNoDocument
	}
	if err := c.SaveDocument(ctx); err != nil {
		return models.Document{}, fmt.Errorf("failed to save scan: %w", err)
	}
	return doc, nil
}

// DocumentName derives a display name from an object path:
// "inbox/Lease 2024.png" becomes "Lease 2024".
func DocumentName(objectName string) string {
	base := path.Base(objectName)
	name := strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
	if name == "" || name == "." || name == "/" {
		return models.DefaultDocumentName
	}
	return name
}

// taggingStore stamps the source hash on every document it stores.
type taggingStore struct {
	pipeline.Store
	sourceHash string
}

func (s taggingStore) Put(ctx context.Context, doc models.Document) error {
	doc.SourceHash = s.sourceHash
	return s.Store.Put(ctx, doc)
}
