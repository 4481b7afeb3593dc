package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/harding/internal/models"
)

// PendingStore holds RAW uploads that are waiting for a preview selection
type PendingStore struct {
	pending map[string]*models.PendingImport
	mu      sync.RWMutex
}

func New() *PendingStore {
	return &PendingStore{
		pending: make(map[string]*models.PendingImport),
	}
}

func (s *PendingStore) Get(id string) (*models.PendingImport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.pending[id]
	return p, exists
}

func (s *PendingStore) Set(id string, p *models.PendingImport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = p
}

// GetAll returns every pending import, oldest first
func (s *PendingStore) GetAll() []*models.PendingImport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.PendingImport, 0, len(s.pending))
	for _, p := range s.pending {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Take removes and returns a pending import, so only one caller can resolve it
func (s *PendingStore) Take(id string) (*models.PendingImport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.pending[id]
	if exists {
		delete(s.pending, id)
	}
	return p, exists
}
