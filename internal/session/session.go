package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the explicit server-side login record. The opaque token is the
// only thing the client holds; role and identity always come from here, never
// from request parameters.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New mints a session with a fresh random token.
func New(userID int64, role, name, email string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session is past its TTL. Redis enforces this
// with key expiry; the memory store checks it on read.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Store persists sessions and counts login attempts. A nil session with a
// nil error means not found, same as an expired or logged-out token.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
