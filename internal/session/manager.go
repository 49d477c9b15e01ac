// Package session provides server-side cookie sessions mapping requests to
// authenticated user ids.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the session cookie set on login.
const CookieName = "vetro_session"

type entry struct {
	userID    int64
	expiresAt time.Time
}

// Manager holds active sessions in memory. Tokens are opaque uuids; an
// expired token behaves exactly like an unknown one.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
}

// NewManager creates a session manager with the given session lifetime.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]entry),
		ttl:      ttl,
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create establishes a new session for userID and returns its token.
func (m *Manager) Create(userID int64) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = entry{userID: userID, expiresAt: time.Now().Add(m.ttl)}
	return token
}

// Lookup resolves a token to a user id, sliding the expiry forward on hit.
func (m *Manager) Lookup(token string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.sessions, token)
		return 0, false
	}
	e.expiresAt = time.Now().Add(m.ttl)
	m.sessions[token] = e
	return e.userID, true
}

// Destroy removes a session. Returns false if the token was unknown.
func (m *Manager) Destroy(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[token]; !ok {
		return false
	}
	delete(m.sessions, token)
	return true
}

// Len returns the number of live sessions, counting expired ones not yet
// swept.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

const sweepInterval = 5 * time.Minute

// StartSweeper runs a background goroutine that periodically drops expired
// sessions. It stops when ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.sweep(); n > 0 {
					slog.Debug("Session sweeper removed expired sessions", "count", n)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for token, e := range m.sessions {
		if now.After(e.expiresAt) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}
