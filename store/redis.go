package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// RedisStore implements Store on a Redis backend. Records are stored as JSON
// under their opaque id with a per-key TTL; this adapter owns the entire
// encode/decode contract, so callers never see raw representations.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to the Redis instance described by url
// (redis://[user:pass@]host:port/db). keyPrefix namespaces all keys written
// by this relay deployment.
func NewRedisStore(url, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store.NewRedisStore parse url: %w", err)
	}
	opts.DialTimeout = DefaultDialTimeout
	opts.ReadTimeout = DefaultReadTimeout
	opts.WriteTimeout = DefaultWriteTimeout

	return &RedisStore{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
	}, nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

func (s *RedisStore) put(ctx context.Context, id string, record any, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store marshal %q: %w", id, err)
	}
	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("store set %q: %w", id, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, id string, record any) error {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store get %q: %w", id, err)
	}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("store decode %q: %w", id, err)
	}
	return nil
}

func (s *RedisStore) PutSession(ctx context.Context, id string, session *Session, ttl time.Duration) error {
	return s.put(ctx, id, session, ttl)
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := s.get(ctx, id, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) PutGrant(ctx context.Context, code string, grant *Grant, ttl time.Duration) error {
	return s.put(ctx, code, grant, ttl)
}

func (s *RedisStore) GetGrant(ctx context.Context, code string) (*Grant, error) {
	var grant Grant
	if err := s.get(ctx, code, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *RedisStore) DeleteGrant(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, s.key(code)).Err(); err != nil {
		return fmt.Errorf("store delete %q: %w", code, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
