package store

import (
	"context"
	"sync"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
)

// MemoryStore is an in-memory ProfileStore for tests and local runs without
// external infrastructure.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]model.UserProfile),
	}
}

var _ repository.ProfileStore = (*MemoryStore)(nil)

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	copied := profile
	return &copied, nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[profile.UserID] = *profile
	return nil
}

// Len reports the number of stored profiles. Useful in tests to assert that
// reads stay side-effect free.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}
