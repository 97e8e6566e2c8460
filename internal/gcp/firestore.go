package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
)

// blobConcurrency bounds parallel GCS transfers per call.
const blobConcurrency = 10

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// DocumentStore keeps document metadata in a Firestore collection and page
// rasters as objects in a GCS bucket, one folder per document:
//
//	<documentId>/<pageId>/original
//	<documentId>/<pageId>/image
type DocumentStore struct {
	firestore  *firestore.Client
	bucket     *storage.BucketHandle
	collection string
}

var _ pipeline.Store = (*DocumentStore)(nil)

func NewDocumentStore(fs *firestore.Client, sc *storage.Client, collection, bucket string) *DocumentStore {
	return &DocumentStore{
		firestore:  fs,
		bucket:     sc.Bucket(bucket),
		collection: collection,
	}
}

func pageObject(docID, pageID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", docID, pageID, kind)
}

// Put uploads every page raster and then writes the metadata. A failed
// upload leaves the previous metadata in place.
func (s *DocumentStore) Put(ctx context.Context, doc models.Document) error {
	logCtx := slog.With("documentId", doc.ID)
	doc = doc.Clone()

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(blobConcurrency)
	for i := range doc.Pages {
		page := &doc.Pages[i]
		page.OriginalImageObject = pageObject(doc.ID, page.ID, "original")
		page.ImageObject = pageObject(doc.ID, page.ID, "image")

		original, current := page.OriginalImageData, page.ImageData
		originalObj, currentObj := page.OriginalImageObject, page.ImageObject
		eg.Go(func() error { return s.writeBlob(gctx, originalObj, original) })
		eg.Go(func() error { return s.writeBlob(gctx, currentObj, current) })
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Failed to upload page rasters", "error", err)
		return fmt.Errorf("failed to upload page rasters: %w", err)
	}

	if _, err := s.firestore.Collection(s.collection).Doc(doc.ID).Set(ctx, doc); err != nil {
		logCtx.Error("Failed to write document metadata", "error", err)
		return fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}
	logCtx.Info("Document stored.", "pageCount", len(doc.Pages))
	return nil
}

func (s *DocumentStore) writeBlob(ctx context.Context, objectName string, data []byte) error {
	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", objectName, err)
	}
	return nil
}

func (s *DocumentStore) readBlob(ctx context.Context, objectName string) ([]byte, error) {
	r, err := s.bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", objectName, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", objectName, err)
	}
	return data, nil
}

// loadPages fills in the rasters of every page of docs.
func (s *DocumentStore) loadPages(ctx context.Context, docs []models.Document) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(blobConcurrency)
	for i := range docs {
		for j := range docs[i].Pages {
			page := &docs[i].Pages[j]
			if page.OriginalImageObject != "" {
				eg.Go(func() (err error) {
					page.OriginalImageData, err = s.readBlob(gctx, page.OriginalImageObject)
					return err
				})
			}
			if page.ImageObject != "" {
				eg.Go(func() (err error) {
					page.ImageData, err = s.readBlob(gctx, page.ImageObject)
					return err
				})
			}
		}
	}
	return eg.Wait()
}

func (s *DocumentStore) Get(ctx context.Context, id string) (models.Document, error) {
	snap, err := s.firestore.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.Document{}, fmt.Errorf("%w: %s", pipeline.ErrNotFound, id)
		}
		return models.Document{}, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return models.Document{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	docs := []models.Document{doc}
	if err := s.loadPages(ctx, docs); err != nil {
		return models.Document{}, err
	}
	return docs[0], nil
}

// GetAll returns every document, newest first, with its rasters.
func (s *DocumentStore) GetAll(ctx context.Context) ([]models.Document, error) {
	docs, err := s.metadata(ctx, s.firestore.Collection(s.collection).OrderBy("createdAt", firestore.Desc))
	if err != nil {
		return nil, err
	}
	if err := s.loadPages(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// List returns metadata only, newest first.
func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	return s.metadata(ctx, s.firestore.Collection(s.collection).OrderBy("createdAt", firestore.Desc))
}

// FindBySourceHash returns the id of a document ingested from identical
// bytes, or "" when there is none.
func (s *DocumentStore) FindBySourceHash(ctx context.Context, hash string) (string, error) {
	snaps, err := s.firestore.Collection(s.collection).Where("sourceHash", "==", hash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(snaps) == 0 {
		return "", nil
	}
	return snaps[0].Ref.ID, nil
}

func (s *DocumentStore) metadata(ctx context.Context, q firestore.Query) ([]models.Document, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := make([]models.Document, 0, len(snaps))
	for _, snap := range snaps {
		var doc models.Document
		if err := snap.DataTo(&doc); err != nil {
			slog.Warn("Skipping undecodable document", "documentId", snap.Ref.ID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes the metadata and every object under the document's prefix.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	logCtx := slog.With("documentId", id)
	if _, err := s.firestore.Collection(s.collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	it := s.bucket.Objects(ctx, &storage.Query{Prefix: id + "/"})
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(blobConcurrency)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			_ = eg.Wait()
			return fmt.Errorf("failed to list rasters of %s: %w", id, err)
		}
		name := attrs.Name
		eg.Go(func() error {
			err := s.bucket.Object(name).Delete(gctx)
			if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
				return fmt.Errorf("failed to delete %s: %w", name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Metadata deleted but rasters remain", "error", err)
		return err
	}
	logCtx.Info("Document deleted.")
	return nil
}
