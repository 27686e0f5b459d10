package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcp/internal/auth/models"
	"oidcp/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested session does not exist
// - Return ErrExpired / ErrAlreadyUsed from Consume for dead sessions
// - Return nil for successful operations

// InMemoryStore keeps authorization sessions in process memory. This is the
// default backend; it intentionally favors clarity over performance.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.Code] = &copied
	return nil
}

// Consume looks the session up by code and marks it exchanged, all under one
// lock so that two concurrent exchanges of the same code cannot both succeed.
func (s *InMemoryStore) Consume(_ context.Context, code string, now time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[code]
	if !ok {
		return nil, fmt.Errorf("authorization session not found: %w", sentinel.ErrNotFound)
	}
	if record.Expired(now) {
		delete(s.sessions, code)
		return nil, fmt.Errorf("authorization session expired: %w", sentinel.ErrExpired)
	}
	if record.Used {
		return nil, fmt.Errorf("authorization code already used: %w", sentinel.ErrAlreadyUsed)
	}

	record.Used = true
	copied := *record
	return &copied, nil
}

// DeleteExpired removes all sessions past their TTL as of now. The time is
// injected for testability.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for code, record := range s.sessions {
		if record.Expired(now) {
			delete(s.sessions, code)
			deleted++
		}
	}
	return deleted
}
