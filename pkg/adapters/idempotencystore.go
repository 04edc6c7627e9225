package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arc-self/ingest-fabric/pkg/idempotency"
)

// RedisIdempotencyStore is the production idempotency.Store: a single JSON
// blob per key with a Redis TTL, using SETNX for the claim-once semantics
// the kernel's Process depends on (P4). Mirrors the cache-aside Redis usage
// the authz plugin uses for permission caching, adapted from a per-field
// HSET cache into a single-value idempotency record.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore wraps an already-configured client.
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (idempotency.Record, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return idempotency.Record{}, idempotency.ErrNotFound
	}
	if err != nil {
		return idempotency.Record{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var rec idempotency.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return idempotency.Record{}, fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	return rec, nil
}

func (s *RedisIdempotencyStore) Put(ctx context.Context, key string, record idempotency.Record, ttl time.Duration) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, record idempotency.Record, ttl time.Duration) (bool, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshal idempotency record: %w", err)
	}

	won, err := s.client.SetNX(ctx, key, body, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return won, nil
}
