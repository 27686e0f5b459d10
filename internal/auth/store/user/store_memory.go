// Package user is the peripheral user directory: subjects seen at
// authorization time, queryable by uid. Lookups for unseen subjects fail with
// ErrNotFound; that never propagates into the main flow's error surface.
package user

import (
	"context"
	"fmt"
	"sync"

	"oidcp/internal/auth/models"
	"oidcp/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewInMemoryStore constructs an empty in-memory user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]models.User)}
}

func (s *InMemoryStore) Save(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UID] = user
	return nil
}

func (s *InMemoryStore) FindByUID(_ context.Context, uid string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[uid]; ok {
		return user, nil
	}
	return models.User{}, fmt.Errorf("user %q: %w", uid, sentinel.ErrNotFound)
}
