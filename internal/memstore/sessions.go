package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/pocketpet/api/internal/models"
)

// SessionStore keeps sessions in memory until they expire or are deleted
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	now      func() time.Time
}

// NewSessionStore creates a SessionStore
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

// SetSession stores a session. The ttl is ignored in favour of session.ExpiresAt.
func (s *SessionStore) SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = s.now().Add(ttl)
	}
	s.sessions[session.ID] = *session
	return nil
}

// SessionExists reports whether a live session with the id exists
func (s *SessionStore) SessionExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

// DeleteSession removes a session; deleting an unknown session is not an error
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
