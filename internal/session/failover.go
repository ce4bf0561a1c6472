package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the store stays on the fallback before
// probing the primary again.
const recoveryInterval = time.Minute

// FailoverStore serves sessions from Redis while it is healthy and degrades
// to the in-memory store when it is not. Sessions written during an outage
// live only in memory, so a later Redis recovery can log users out; that
// beats locking everyone out while Redis is down.
//
// Every request on the auth path goes through this store concurrently, so
// the trip state is kept in atomics, not under a lock.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger
	isDown   atomic.Bool
	downAt   atomic.Int64 // unix nanos of the last failed primary call
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverStore) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	f.isDown.Store(true)
	f.downAt.Store(time.Now().UnixNano())
}

// canRetryPrimary reports whether the recovery window has elapsed since the
// last failed primary call.
func (f *FailoverStore) canRetryPrimary() bool {
	return time.Since(time.Unix(0, f.downAt.Load())) > recoveryInterval
}

func (f *FailoverStore) Get(ctx context.Context, token string) (*Session, error) {
	if !f.isDown.Load() {
		s, err := f.primary.Get(ctx, token)
		if err == nil {
			return s, nil
		}
		f.markDown(err)
	} else if f.canRetryPrimary() {
		s, err := f.primary.Get(ctx, token)
		if err == nil {
			f.isDown.Store(false)
			return s, nil
		}
		f.downAt.Store(time.Now().UnixNano())
	}

	return f.fallback.Get(ctx, token)
}

func (f *FailoverStore) Put(ctx context.Context, s *Session) error {
	if !f.isDown.Load() {
		err := f.primary.Put(ctx, s)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}

	return f.fallback.Put(ctx, s)
}

func (f *FailoverStore) Delete(ctx context.Context, token string) error {
	if !f.isDown.Load() {
		err := f.primary.Delete(ctx, token)
		if err == nil {
			return nil
		}
		f.markDown(err)
	}

	return f.fallback.Delete(ctx, token)
}

func (f *FailoverStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		allowed, err := f.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		f.markDown(err)
	}

	return f.fallback.CheckRateLimit(ctx, key, limit, window)
}
