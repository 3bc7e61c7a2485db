package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pubquiz-service/internal/app"
	"pubquiz-service/internal/domain"
)

// SessionCache fronts a SessionRepository with a Redis lookup keyed by the
// public join code. Every answer submission resolves the code, so the hot
// read path skips the backing store. Writes go through to the store and
// refresh the cached copy best-effort; a lost cache write only costs one
// extra store read.
type SessionCache struct {
	client *redis.Client
	inner  app.SessionRepository
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, inner app.SessionRepository, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, inner: inner, ttl: ttl}
}

func (s *SessionCache) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.inner.CreateSession(ctx, session); err != nil {
		return err
	}
	s.cache(ctx, *session)
	return nil
}

func (s *SessionCache) FindSessionByCode(ctx context.Context, code string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(code)).Result()
	if err == nil && raw != "" {
		var session domain.Session
		if err := json.Unmarshal([]byte(raw), &session); err == nil {
			return session, nil
		}
	}

	session, err := s.inner.FindSessionByCode(ctx, code)
	if err != nil {
		return domain.Session{}, err
	}
	s.cache(ctx, session)
	return session, nil
}

func (s *SessionCache) UpdateSession(ctx context.Context, session domain.Session) error {
	if err := s.inner.UpdateSession(ctx, session); err != nil {
		return err
	}
	s.cache(ctx, session)
	return nil
}

func (s *SessionCache) cache(ctx context.Context, session domain.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key(session.Code), data, s.ttl).Err()
}

func (s *SessionCache) key(code string) string {
	return "session:code:" + code
}
