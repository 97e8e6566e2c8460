package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/documentscanflow/internal/gcp"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/ocr"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
	"github.com/Lllllllleong/documentscanflow/internal/transform"
)

// OCR engines selectable through OCR_ENGINE.
const (
	EngineVertex    = "vertex"
	EngineTesseract = "tesseract"
	EngineNone      = "none"
)

// IngestConfig holds configuration for the scan-ingest service.
type IngestConfig struct {
	ProjectID        string
	CollectionName   string
	ImageBucket      string
	VertexAIRegion   string
	OCREngine        string
	OCRLanguages     string
	Filter           transform.Filter
	AutoCrop         bool
	WorkflowID       string
	WorkflowLocation string
}

// IngestFunction turns images uploaded to a bucket into saved documents.
type IngestFunction struct {
	storageClient *storage.Client
	store         *gcp.DocumentStore
	extractor     pipeline.Extractor
	observers     []pipeline.SaveObserver
	config        IngestConfig
}

// GCSEvent is the payload of a storage object finalized event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

func loadIngestConfig() (*IngestConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	imageBucket := gcp.GetEnv("IMAGE_BUCKET", "")
	if imageBucket == "" {
		return nil, fmt.Errorf("IMAGE_BUCKET environment variable must be set")
	}
	filter, err := transform.ParseFilter(gcp.GetEnv("INGEST_FILTER", "original"))
	if err != nil {
		return nil, fmt.Errorf("INGEST_FILTER: %w", err)
	}
	autoCrop, err := strconv.ParseBool(gcp.GetEnv("INGEST_AUTOCROP", "false"))
	if err != nil {
		return nil, fmt.Errorf("INGEST_AUTOCROP: %w", err)
	}

	return &IngestConfig{
		ProjectID:        projectID,
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		ImageBucket:      imageBucket,
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		OCREngine:        strings.ToLower(gcp.GetEnv("OCR_ENGINE", EngineVertex)),
		OCRLanguages:     gcp.GetEnv("OCR_LANGUAGES", ocr.DefaultLanguage),
		Filter:           filter,
		AutoCrop:         autoCrop,
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}, nil
}

// newExtractor builds the configured text extractor. EngineNone yields nil,
// which makes every extraction fail softly.
func newExtractor(ctx context.Context, config *IngestConfig) (pipeline.Extractor, error) {
	switch config.OCREngine {
	case EngineVertex:
		return gcp.NewVertexExtractor(ctx, config.ProjectID, config.VertexAIRegion)
	case EngineTesseract:
		return ocr.New(config.OCRLanguages)
	case EngineNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown OCR_ENGINE %q", config.OCREngine)
}

// NewIngest creates a new IngestFunction instance.
func NewIngest(ctx context.Context) (*IngestFunction, error) {
	config, err := loadIngestConfig()
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
	extractor, err := newExtractor(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s extractor: %w", config.OCREngine, err)
	}

	f := &IngestFunction{
		storageClient: storageClient,
		store:         gcp.NewDocumentStore(firestoreClient, storageClient, config.CollectionName, config.ImageBucket),
		extractor:     extractor,
		config:        *config,
	}
	if config.WorkflowID != "" {
		notifier, err := gcp.NewWorkflowNotifier(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
		f.observers = append(f.observers, notifier)
	}
	slog.Info("Scan ingest initialized.", "ocrEngine", config.OCREngine, "filter", config.Filter, "autoCrop", config.AutoCrop)
	return f, nil
}

// UploadType returns the MIME type of an uploaded object, falling back to
// its extension, and whether the pipeline can decode it.
func UploadType(e GCSEvent) (string, bool) {
	ct := e.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(path.Ext(e.Name)))
	}
	return ct, raster.Accepts(ct)
}

// Process scans one uploaded image into a stored document.
func (f *IngestFunction) Process(ctx context.Context, e GCSEvent) (*models.IngestResponse, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if e.Bucket == f.config.ImageBucket {
		// Page rasters written by the store land here too.
		logCtx.Info("Ignoring object in the page raster bucket.")
		return &models.IngestResponse{Status: "skipped"}, nil
	}
	mimeType, ok := UploadType(e)
	if !ok {
		logCtx.Info("Ignoring object that is not a supported image.", "contentType", mimeType)
		return &models.IngestResponse{Status: "skipped"}, nil
	}

	data, err := gcp.ReadObject(ctx, f.storageClient, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download upload", "error", err)
		return nil, err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	logCtx = logCtx.With("sourceHash", hash)

	existing, err := f.store.FindBySourceHash(ctx, hash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return nil, err
	}
	if existing != "" {
		logCtx.Info("Duplicate upload detected. Skipping.", "existingDocId", existing)
		return &models.IngestResponse{Status: "duplicate", DocumentID: existing}, nil
	}

	c := pipeline.New(pipeline.Config{
		Store:     taggingStore{Store: f.store, sourceHash: hash},
		Extractor: f.extractor,
		Observers: f.observers,
		Logger:    logCtx,
	})
	doc, err := RunScan(ctx, c, data, mimeType, ScanOptions{
		Name:     DocumentName(e.Name),
		Filter:   f.config.Filter,
		AutoCrop: f.config.AutoCrop,
	})
	if err != nil {
		logCtx.Error("Scan failed", "error", err)
		return nil, err
	}

	var textLength int
	if page := doc.FirstPage(); page != nil {
		textLength = len(page.OCRText)
	}
	logCtx.Info("Scan stored.", "documentId", doc.ID, "textLength", textLength)
	return &models.IngestResponse{
		Status:     "success",
		DocumentID: doc.ID,
		TextLength: textLength,
	}, nil
}
