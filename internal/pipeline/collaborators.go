package pipeline

import (
	"context"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/models"
)

// Store persists documents. Implementations return documents in any order;
// callers sort.
type Store interface {
	Put(ctx context.Context, doc models.Document) error
	Get(ctx context.Context, id string) (models.Document, error)
	GetAll(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

// Camera hands out exclusive streams. Open returns an error wrapping
// ErrDeviceAccessDenied when permission is refused.
type Camera interface {
	Open(ctx context.Context) (CameraStream, error)
}

// CameraStream yields encoded frames until stopped.
type CameraStream interface {
	Frame(ctx context.Context) ([]byte, error)
	Stop() error
}

// Extractor turns a page raster into text. It may take seconds.
type Extractor interface {
	Extract(ctx context.Context, raster []byte) (string, error)
}

// ShareSink delivers an exported file.
type ShareSink interface {
	Share(ctx context.Context, a export.Artifact) error
}

// SaveObserver is told about every document saved from the export stage.
// Its errors are logged, never returned to the caller.
type SaveObserver interface {
	DocumentSaved(ctx context.Context, doc models.Document) error
}
