//go:build !ocr

package ocr

import "context"

// Client is a stub that fails every call.
type Client struct{}

// New returns ErrOCRNotEnabled.
func New(languages string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is safe on a nil client.
func (c *Client) Close() error {
	return nil
}

func (c *Client) Extract(context.Context, []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
