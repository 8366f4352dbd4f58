package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahadu-market/ordersync/internal/orders"
)

// RedisStore persists the snapshot document as a single Redis string.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration // 0 means keep forever
}

// NewRedisStore returns a store writing under key with the given TTL. An
// empty key falls back to DefaultKey.
func NewRedisStore(client redis.Cmdable, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Save overwrites the stored snapshot document.
func (s *RedisStore) Save(ctx context.Context, snaps []orders.Snapshot) error {
	payload, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

// Load fetches the stored snapshot document. Returns (nil, nil) if the key
// does not exist.
func (s *RedisStore) Load(ctx context.Context) ([]orders.Snapshot, error) {
	payload, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	var snaps []orders.Snapshot
	if err := json.Unmarshal([]byte(payload), &snaps); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return snaps, nil
}
