package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quiz_funnel_backend/internal/funnel/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "funnel:session:"

// RedisStore keeps sessions as JSON documents with a TTL, for deploys
// where the widget API runs behind a load balancer with sticky-free
// routing. Update serialization is process-local (a lock per session ID);
// running multiple replicas against one Redis requires sticky sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	locks  sync.Map // session ID -> *sync.Mutex
}

// NewRedisStore creates a Redis-backed session store from a redis:// URL.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

// Ping checks connectivity, for readiness checks at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Create stores a fresh session.
func (s *RedisStore) Create(ctx context.Context, session *domain.Session) error {
	return s.set(ctx, session)
}

// Get returns the session.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Update applies fn under a per-session lock and refreshes the TTL.
func (s *RedisStore) Update(ctx context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if err := s.set(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes the session and its lock.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.locks.Delete(id)
	return s.client.Del(ctx, redisKeyPrefix+id.String()).Err()
}

func (s *RedisStore) set(ctx context.Context, session *domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+session.ID.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) lockFor(id uuid.UUID) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
