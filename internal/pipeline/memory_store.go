package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Lllllllleong/documentscanflow/internal/models"
)

// MemoryStore keeps documents in a map. Values are deep-copied in and out so
// callers never share slices with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]models.Document)}
}

func (s *MemoryStore) Put(_ context.Context, doc models.Document) error {
	if doc.ID == "" {
		return errors.New("document has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) GetAll(context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Clone())
	}
	return out, nil
}

// Delete is a no-op for unknown ids.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
