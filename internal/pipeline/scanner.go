package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/documentscanflow/internal/models"
	"github.com/Lllllllleong/documentscanflow/internal/raster"
)

// NewScan moves from the dashboard to the scanner. No document exists until
// an image is captured or uploaded.
func (c *Controller) NewScan() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.move(NewScan)
}

// StartCamera opens the camera stream. A refused device yields
// ErrDeviceAccessDenied; the scanner stays usable through Upload.
func (c *Controller) StartCamera(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Scanner); err != nil {
		return err
	}
	if c.stream != nil {
		return nil
	}
	if c.camera == nil {
		return fmt.Errorf("%w: no camera available", ErrDeviceAccessDenied)
	}
	stream, err := c.camera.Open(ctx)
	if err != nil {
		c.log.Warn("camera unavailable, upload still possible", "error", err)
		if errors.Is(err, ErrDeviceAccessDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeviceAccessDenied, err)
	}
	c.stream = stream
	return nil
}

// CameraActive reports whether a stream is held.
func (c *Controller) CameraActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// StopCamera releases the stream without leaving the scanner.
func (c *Controller) StopCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCamera()
}

func (c *Controller) stopCamera() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Stop(); err != nil {
		c.log.Warn("failed to stop camera stream", "error", err)
	}
	c.stream = nil
}

// Capture grabs one frame, releases the camera and opens the editor on a new
// document built from the frame.
func (c *Controller) Capture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Scanner); err != nil {
		return err
	}
	if c.stream == nil {
		return ErrCameraInactive
	}
	frame, err := c.stream.Frame(ctx)
	if err != nil {
		return fmt.Errorf("failed to read camera frame: %w", err)
	}
	img, _, err := raster.Decode(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	data, err := encodePage(img)
	if err != nil {
		return err
	}
	c.stopCamera()
	return c.captured(data)
}

// Upload opens the editor on a new document built from an image file. The
// file bytes are kept as the page's original raster.
func (c *Controller) Upload(data []byte, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Scanner); err != nil {
		return err
	}
	if !raster.Accepts(mimeType) {
		return fmt.Errorf("%w: %w %q", ErrDecodeFailure, raster.ErrUnsupportedType, mimeType)
	}
	if _, _, err := raster.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	c.stopCamera()
	return c.captured(data)
}

func (c *Controller) captured(data []byte) error {
	doc := models.NewDocument(data, models.DefaultDocumentName, c.now())
	c.doc = &doc
	if err := c.move(Captured); err != nil {
		c.doc = nil
		return err
	}
	return nil
}
