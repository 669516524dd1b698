package prefs

import (
	"context"
	"sync"

	"github.com/seesound/backend/internal/storage/models"
)

// MemoryStore is the demo-mode backend used when no database is configured.
// Records are keyed by user id so concurrent users do not share state.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Preferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.Preferences),
	}
}

func (m *MemoryStore) GetPreferences(_ context.Context, userID string) (models.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.records[userID]; ok {
		return p, nil
	}
	return models.DefaultPreferences(userID), nil
}

func (m *MemoryStore) SavePreferences(_ context.Context, p models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[p.UserID] = p
	return nil
}
