package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"enroll/internal/registration/models"
	"enroll/pkg/sentinel"
)

// MemoryStore is an in-memory security store for tests and local development.
type MemoryStore struct {
	mu          sync.Mutex
	nextID      int64
	credentials map[int64]models.SecurityCredential
	history     []models.SecurityHistoryEntry
	counters    map[string]models.SecurityCounter
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		credentials: make(map[int64]models.SecurityCredential),
		counters:    make(map[string]models.SecurityCounter),
	}
}

func (s *MemoryStore) InsertPassword(ctx context.Context, userID int64, passwordHash, salt string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.credentials[userID]; exists {
		return 0, fmt.Errorf("insert password for user %d: %w", userID, sentinel.ErrConflict)
	}

	now := time.Now()
	cred := models.SecurityCredential{
		ID:           s.nextID,
		UserID:       userID,
		PasswordHash: passwordHash,
		Salt:         salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.credentials[userID] = cred
	return cred.ID, nil
}

func (s *MemoryStore) InsertHistory(ctx context.Context, userID int64, actionType string, ipAddress, deviceInfo *string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.SecurityHistoryEntry{
		ID:         s.nextID,
		UserID:     userID,
		ActionType: actionType,
		IPAddress:  ipAddress,
		DeviceInfo: deviceInfo,
		CreatedAt:  time.Now(),
	}
	s.nextID++
	s.history = append(s.history, entry)
	return entry.ID, nil
}

func (s *MemoryStore) UpsertCounter(ctx context.Context, counterType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter := s.counters[counterType]
	counter.CounterType = counterType
	counter.CounterValue++
	counter.UpdatedAt = time.Now()
	s.counters[counterType] = counter
	return counter.CounterValue, nil
}

// CredentialByUser returns the stored credential for assertions in tests.
func (s *MemoryStore) CredentialByUser(userID int64) (models.SecurityCredential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[userID]
	return cred, ok
}

// HistoryByUser returns the audit entries recorded for a user.
func (s *MemoryStore) HistoryByUser(userID int64) []models.SecurityHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.SecurityHistoryEntry
	for _, e := range s.history {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries
}

// CounterValue returns the current value of a counter, zero if absent.
func (s *MemoryStore) CounterValue(counterType string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counterType].CounterValue
}
