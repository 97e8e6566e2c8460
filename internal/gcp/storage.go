package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/pipeline"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// An existing object is not an error.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte, contentType string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return gcsWriteError(objectName, "failed to write to GCS", err)
	}
	if err := writer.Close(); err != nil {
		return gcsWriteError(objectName, "failed to finalize GCS write", err)
	}
	return nil
}

// gcsWriteError swallows precondition failures, which mean the object is
// already there.
func gcsWriteError(objectName, msg string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 412 {
		slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
		return nil
	}
	slog.Error(msg, "gcsObject", objectName, "error", err)
	return fmt.Errorf("%s: %w", msg, err)
}

// ReadObject downloads a whole object.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// BucketSink shares exported files by writing them to a bucket under
// <prefix>/<timestamp>-<file name>.
type BucketSink struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
	now        func() time.Time
}

var _ pipeline.ShareSink = (*BucketSink)(nil)

func NewBucketSink(client *storage.Client, bucket, prefix string) *BucketSink {
	return &BucketSink{
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
		prefix:     prefix,
		now:        time.Now,
	}
}

// shareable lists the MIME types the sink accepts.
var shareable = map[string]bool{
	export.MIMEJPEG: true,
	export.MIMEPDF:  true,
}

// ObjectName is where an artifact shared at t is written.
func (s *BucketSink) ObjectName(a export.Artifact, t time.Time) string {
	name := fmt.Sprintf("%s-%s", t.UTC().Format("20060102T150405.000Z"), a.Name)
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *BucketSink) Share(ctx context.Context, a export.Artifact) error {
	_, err := s.Upload(ctx, a)
	return err
}

// Upload writes the artifact and returns its gs:// URI.
func (s *BucketSink) Upload(ctx context.Context, a export.Artifact) (string, error) {
	if !shareable[a.MIMEType] {
		return "", fmt.Errorf("%w: %s", pipeline.ErrUnsupportedShareTarget, a.MIMEType)
	}
	objectName := s.ObjectName(a, s.now())
	if err := SaveToGCSAtomically(ctx, s.bucket, objectName, a.Data, a.MIMEType); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", s.bucketName, objectName), nil
}
