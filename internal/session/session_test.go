package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewManager(map[string]string{"admin": string(hash)}, WithTTL(30*time.Minute), WithClock(clock.Now))
}

func TestManager_Login(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	t.Run("valid credentials", func(t *testing.T) {
		s, err := m.Login("admin", "secret")
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "admin", s.Username)
		assert.Equal(t, clock.t.Add(30*time.Minute), s.ExpiresAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := m.Login("admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := m.Login("root", "secret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("sessions are distinct", func(t *testing.T) {
		a, err := m.Login("admin", "secret")
		require.NoError(t, err)
		b, err := m.Login("admin", "secret")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestManager_Validate(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	s, err := m.Login("admin", "secret")
	require.NoError(t, err)

	clock.t = clock.t.Add(29 * time.Minute)
	got, err := m.Validate(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	clock.t = clock.t.Add(time.Minute)
	_, err = m.Validate(s.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = m.Validate(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Logout(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(t, clock)

	s, err := m.Login("admin", "secret")
	require.NoError(t, err)

	m.Logout(s.ID)
	_, err = m.Validate(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Logout("missing")
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pa55")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pa55")))

	m := NewManager(map[string]string{"u": hash})
	_, err = m.Login("u", "pa55")
	assert.NoError(t, err)
	assert.Equal(t, DefaultTTL, m.TTL())
}

func TestManager_LoginUnknownUserComparesHash(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	_, err := m.Login("ghost", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
