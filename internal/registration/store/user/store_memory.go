package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enroll/internal/registration/models"
	"enroll/pkg/sentinel"
)

// MemoryStore is an in-memory user store for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]models.User
	byEmail map[string]int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		byID:    make(map[int64]models.User),
		byEmail: make(map[string]int64),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, name, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return models.User{}, fmt.Errorf("insert user %q: %w", email, sentinel.ErrConflict)
	}

	now := time.Now()
	u := models.User{
		ID:        s.nextID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return u, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return models.User{}, sentinel.ErrNotFound
	}
	return u, nil
}
