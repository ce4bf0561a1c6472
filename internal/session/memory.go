package session

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl: ttl,
	}
}

func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	val, ok := m.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	s := val.(*Session)
	if s.Expired() {
		m.sessions.Delete(token)
		return nil, nil
	}
	return s, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	m.sessions.Store(s.Token, s)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	m.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (m *MemoryStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := m.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	m.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
