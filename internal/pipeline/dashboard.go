package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Lllllllleong/documentscanflow/internal/models"
)

// SortBy orders the dashboard list.
type SortBy int

const (
	SortByDate  SortBy = iota // newest first
	SortByName                // case-insensitive, A to Z
	SortByPages               // most pages first
)

// ParseSortBy accepts "date", "name" and "pages"; empty means date.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return SortByDate, nil
	case "name":
		return SortByName, nil
	case "pages":
		return SortByPages, nil
	}
	return SortByDate, fmt.Errorf("unknown sort order %q", s)
}

// Query filters and orders the dashboard list.
type Query struct {
	Search string // matched against names and page text, case-insensitive
	SortBy SortBy
}

// Filter applies q to docs and returns a new slice.
func Filter(docs []models.Document, q Query) []models.Document {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if term == "" || matches(d, term) {
			out = append(out, d)
		}
	}

	byDate := func(a, b models.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	}
	switch q.SortBy {
	case SortByName:
		slices.SortStableFunc(out, func(a, b models.Document) int {
			if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
				return c
			}
			return byDate(a, b)
		})
	case SortByPages:
		slices.SortStableFunc(out, func(a, b models.Document) int {
			if c := cmp.Compare(len(b.Pages), len(a.Pages)); c != 0 {
				return c
			}
			return byDate(a, b)
		})
	default:
		slices.SortStableFunc(out, byDate)
	}
	return out
}

func matches(d models.Document, term string) bool {
	if strings.Contains(strings.ToLower(d.Name), term) {
		return true
	}
	for _, p := range d.Pages {
		if strings.Contains(strings.ToLower(p.OCRText), term) {
			return true
		}
	}
	return false
}

// List reads every stored document and applies q. It works from any stage.
func (c *Controller) List(ctx context.Context, q Query) ([]models.Document, error) {
	if c.store == nil {
		return nil, fmt.Errorf("%w: no store configured", ErrPersistence)
	}
	docs, err := c.store.GetAll(ctx)
	if err != nil {
		c.log.Error("failed to load documents", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return Filter(docs, q), nil
}

// Delete removes a stored document. Only available on the dashboard.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Dashboard); err != nil {
		return err
	}
	if c.store == nil {
		return fmt.Errorf("%w: no store configured", ErrPersistence)
	}
	if err := c.store.Delete(ctx, id); err != nil {
		c.log.Error("failed to delete document", "documentId", id, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	c.log.Info("document deleted", "documentId", id)
	return nil
}

// Open loads a stored document into the editor.
func (c *Controller) Open(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.require(Dashboard); err != nil {
		return err
	}
	if c.store == nil {
		return fmt.Errorf("%w: no store configured", ErrPersistence)
	}
	doc, err := c.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	c.doc = &doc
	if err := c.move(Open); err != nil {
		c.doc = nil
		return err
	}
	return nil
}
