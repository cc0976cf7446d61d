// Package session keeps authenticated dashboard sessions in memory.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is how long a session stays valid after login.
const DefaultTTL = 30 * time.Minute

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Session is an authenticated user session.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager authenticates users against bcrypt hashes and tracks their sessions.
type Manager struct {
	mu       sync.Mutex
	users    map[string]string
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager for users mapped to bcrypt password hashes.
func NewManager(users map[string]string, opts ...Option) *Manager {
	m := &Manager{
		users:    make(map[string]string, len(users)),
		sessions: make(map[string]Session),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for name, hash := range users {
		m.users[name] = hash
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HashPassword returns the bcrypt hash stored in the users config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("volprofile"), bcrypt.DefaultCost)
	})
	return dummy
}

// Login checks the credentials and opens a new session.
func (m *Manager) Login(username, password string) (Session, error) {
	hash, ok := m.users[username]
	if !ok {
		// compare anyway so unknown users take as long as wrong passwords
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictExpired(now)
	m.sessions[s.ID] = s

	return s, nil
}

// Validate returns the live session for id. Expired sessions are removed.
func (m *Manager) Validate(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

// Logout ends the session. Unknown ids are ignored.
func (m *Manager) Logout(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) evictExpired(now time.Time) {
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}
