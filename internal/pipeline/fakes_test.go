package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Lllllllleong/documentscanflow/internal/export"
	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

var epoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x / 5), G: uint8(y / 7), B: 128, A: 255})
		}
	}
	return img
}

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := raster.EncodeJPEG(gradient(w, h), raster.DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func dims(t *testing.T, data []byte) image.Point {
	t.Helper()
	cfg, err := raster.DecodeConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	return image.Pt(cfg.Width, cfg.Height)
}

type fakeStream struct {
	frame []byte
	stops int
}

func (s *fakeStream) Frame(context.Context) ([]byte, error) { return s.frame, nil }

func (s *fakeStream) Stop() error {
	s.stops++
	return nil
}

type fakeCamera struct {
	frame   []byte
	denied  bool
	streams []*fakeStream
}

func (c *fakeCamera) Open(context.Context) (CameraStream, error) {
	if c.denied {
		return nil, errors.New("NotAllowedError: permission denied")
	}
	s := &fakeStream{frame: c.frame}
	c.streams = append(c.streams, s)
	return s, nil
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, raster []byte) (string, error) {
	e.calls++
	if len(raster) == 0 {
		return "", errors.New("empty raster")
	}
	return e.text, e.err
}

type fakeSink struct {
	got []export.Artifact
	err error
}

func (s *fakeSink) Share(_ context.Context, a export.Artifact) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, a)
	return nil
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Put(context.Context, models.Document) error {
	return errors.New("quota exceeded")
}

type observerFunc func(context.Context, models.Document) error

func (f observerFunc) DocumentSaved(ctx context.Context, doc models.Document) error {
	return f(ctx, doc)
}

// newTestController returns a controller at the dashboard backed by a
// memory store and a camera that yields a w x h frame.
func newTestController(t *testing.T, w, h int) (*Controller, *MemoryStore, *fakeCamera) {
	t.Helper()
	store := NewMemoryStore()
	cam := &fakeCamera{frame: jpegOf(t, w, h)}
	c := New(Config{
		Store:     store,
		Camera:    cam,
		Extractor: &fakeExtractor{text: "INVOICE 42"},
		Sink:      &fakeSink{},
		Logger:    quietLogger(),
		Now:       func() time.Time { return epoch },
	})
	return c, store, cam
}

// toEditor scans a new page through the camera.
func toEditor(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.NewScan(); err != nil {
		t.Fatal(err)
	}
	if err := c.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func advance(t *testing.T, c *Controller, to Stage) {
	t.Helper()
	for c.Stage() != to {
		if err := c.Next(); err != nil {
			t.Fatalf("Next from %v: %v", c.Stage(), err)
		}
	}
}
