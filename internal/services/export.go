package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/gcp"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// ErrInvalidRequest marks errors caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// StatusCode maps a Process, List or Delete error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, pipeline.ErrUnsupportedShareTarget):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ExportConfig holds configuration for the document-export service.
type ExportConfig struct {
	ProjectID      string
	CollectionName string
	ImageBucket    string
	ExportBucket   string
	ExportPrefix   string
}

type documentGetter interface {
	Get(ctx context.Context, id string) (models.Document, error)
}

type artifactUploader interface {
	Upload(ctx context.Context, a export.Artifact) (string, error)
}

// ExportFunction renders stored documents as JPEG or PDF files in a bucket.
type ExportFunction struct {
	store documentGetter
	sink  artifactUploader
}

func loadExportConfig() (*ExportConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	imageBucket := gcp.GetEnv("IMAGE_BUCKET", "")
	exportBucket := gcp.GetEnv("EXPORT_BUCKET", "")
	if imageBucket == "" || exportBucket == "" {
		return nil, fmt.Errorf("IMAGE_BUCKET and EXPORT_BUCKET environment variables must be set")
	}
	return &ExportConfig{
		ProjectID:      projectID,
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		ImageBucket:    imageBucket,
		ExportBucket:   exportBucket,
		ExportPrefix:   gcp.GetEnv("EXPORT_PREFIX", "exports"),
	}, nil
}

// NewExport creates a new ExportFunction instance.
func NewExport(ctx context.Context) (*ExportFunction, error) {
	config, err := loadExportConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ExportFunction{
		store: gcp.NewDocumentStore(firestoreClient, storageClient, config.CollectionName, config.ImageBucket),
		sink:  gcp.NewBucketSink(storageClient, config.ExportBucket, config.ExportPrefix),
	}, nil
}

// ExportOptions parses the request settings. Empty fields take the export
// stage defaults.
func ExportOptions(req *models.ExportRequest) (export.Options, error) {
	opts := export.DefaultOptions()
	var err error
	if opts.Format, err = export.ParseFormat(req.Format); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if opts.PageSize, err = export.ParsePageSize(req.PageSize); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if opts.Orientation, err = export.ParseOrientation(req.Orientation); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.Quality != 0 {
		if req.Quality < export.MinQuality || req.Quality > export.MaxQuality {
			return opts, fmt.Errorf("%w: %w: %d", ErrInvalidRequest, export.ErrQuality, req.Quality)
		}
		opts.Quality = req.Quality
	}
	return opts, nil
}

// Process composes the first page of a stored document and uploads it.
func (f *ExportFunction) Process(ctx context.Context, req *models.ExportRequest) (*models.ExportResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID)
	if req.DocumentID == "" {
		return nil, fmt.Errorf("%w: documentId must be set", ErrInvalidRequest)
	}
	opts, err := ExportOptions(req)
	if err != nil {
		return nil, err
	}

	doc, err := f.store.Get(ctx, req.DocumentID)
	if err != nil {
		logCtx.Error("Failed to load document", "error", err)
		return nil, err
	}
	page := doc.FirstPage()
	if page == nil {
		return nil, fmt.Errorf("document %s has no pages", doc.ID)
	}
	img, _, err := raster.Decode(page.ImageData)
	if err != nil {
		logCtx.Error("Failed to decode page raster", "error", err)
		return nil, err
	}
	artifact, err := export.Encode(doc.Name, img, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", opts.Format, err)
	}
	uri, err := f.sink.Upload(ctx, artifact)
	if err != nil {
		logCtx.Error("Failed to upload export", "error", err)
		return nil, err
	}

	logCtx.Info("Document exported.", "objectUri", uri, "format", opts.Format, "bytes", len(artifact.Data))
	return &models.ExportResponse{
		Status:      "success",
		ObjectURI:   uri,
		MIMEType:    artifact.MIMEType,
		SizeInBytes: len(artifact.Data),
	}, nil
}
