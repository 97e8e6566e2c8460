package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/documentscanflow/internal/gcp"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
)

type documentLister interface {
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

// LibraryFunction serves the dashboard: search, sort and delete.
type LibraryFunction struct {
	store documentLister
}

// NewLibrary creates a new LibraryFunction instance.
func NewLibrary(ctx context.Context) (*LibraryFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	imageBucket := gcp.GetEnv("IMAGE_BUCKET", "")
	if imageBucket == "" {
		return nil, fmt.Errorf("IMAGE_BUCKET environment variable must be set")
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	collection := gcp.GetEnv("FIRESTORE_COLLECTION", "documents")
	return &LibraryFunction{
		store: gcp.NewDocumentStore(firestoreClient, storageClient, collection, imageBucket),
	}, nil
}

// Entry summarizes doc for the dashboard list.
func Entry(doc models.Document) models.LibraryEntry {
	e := models.LibraryEntry{
		ID:        doc.ID,
		Name:      doc.Name,
		PageCount: len(doc.Pages),
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, p := range doc.Pages {
		if p.OCRText != "" {
			e.HasText = true
		}
	}
	return e
}

// List returns the stored documents matching the request.
func (f *LibraryFunction) List(ctx context.Context, req *models.LibraryListRequest) (*models.LibraryListResponse, error) {
	sortBy, err := pipeline.ParseSortBy(req.SortBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	docs, err := f.store.List(ctx)
	if err != nil {
		slog.Error("Failed to list documents", "error", err)
		return nil, err
	}
	docs = pipeline.Filter(docs, pipeline.Query{Search: req.Search, SortBy: sortBy})

	entries := make([]models.LibraryEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, Entry(d))
	}
	return &models.LibraryListResponse{Status: "success", Documents: entries}, nil
}

// Delete removes a document and its page rasters.
func (f *LibraryFunction) Delete(ctx context.Context, id string) (*models.LibraryDeleteResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id must be set", ErrInvalidRequest)
	}
	if err := f.store.Delete(ctx, id); err != nil {
		slog.Error("Failed to delete document", "documentId", id, "error", err)
		return nil, err
	}
	slog.Info("Document deleted.", "documentId", id)
	return &models.LibraryDeleteResponse{Status: "success", DocumentID: id}, nil
}
