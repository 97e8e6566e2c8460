//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps one Tesseract instance. Tesseract is not safe for concurrent
// use, so calls are serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a client for the given languages, e.g. "eng+deu".
// The client should be closed when no longer needed.
func New(languages string) (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(Languages(languages)...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Extract recognizes the text of an encoded page raster. Tesseract cannot be
// interrupted, so ctx is only checked before starting.
func (c *Client) Extract(ctx context.Context, raster []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.client.SetImageFromBytes(raster); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return tidy(text), nil
}
