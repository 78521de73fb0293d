package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	CookieName = "cargoscan_session"

	sessionTTLDefault = 12 * time.Hour
)

// Sessions is an in-memory store of logged in browser sessions.
// Tokens do not survive a server restart.
type Sessions struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]time.Time
}

// NewSessions creates a session store; a non-positive ttl uses 12h.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = sessionTTLDefault
	}
	return &Sessions{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]time.Time),
	}
}

// TTL returns the lifetime of a session.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Create starts a new session and returns its token.
func (s *Sessions) Create() string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	s.items[token] = s.now().Add(s.ttl)
	return token
}

// Valid reports whether token belongs to a live session.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.items[token]
	if !ok {
		return false
	}
	if !s.now().Before(exp) {
		delete(s.items, token)
		return false
	}
	return true
}

// Delete ends the session, unknown tokens are ignored.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.items)
}

func (s *Sessions) pruneLocked() {
	now := s.now()
	for k, exp := range s.items {
		if !now.Before(exp) {
			delete(s.items, k)
		}
	}
}
