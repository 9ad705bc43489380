package services

import (
	"context"
	"sync"

	"github.com/whatsview/whatsview-backend/internal/models"
)

// memStore is an in-memory MessageStore for tests. InsertIfAbsent is atomic under
// the mutex, mirroring the conditional-insert guarantee the real store gets from
// Mongo.
type memStore struct {
	mu   sync.Mutex
	docs map[string]models.Message

	findErr    error
	insertErr  error
	replaceErr error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]models.Message)}
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Message, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *memStore) InsertIfAbsent(_ context.Context, msg *models.Message) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[msg.ID]; exists {
		return false, nil
	}
	s.docs[msg.ID] = *msg
	return true, nil
}

func (s *memStore) Replace(_ context.Context, msg *models.Message) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[msg.ID] = *msg
	return nil
}

func (s *memStore) get(id string) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
