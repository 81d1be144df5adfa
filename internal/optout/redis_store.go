package optout

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the opt-out marker under the fixed key name.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed opt-out marker store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Read returns true only when the marker holds the opt-out sentinel.
// A missing key or any Redis failure reads as "not opted out".
func (r *RedisStore) Read(ctx context.Context) bool {
	val, err := r.client.Get(ctx, KeyName).Result()
	if err != nil {
		return false
	}
	return optedOut(val)
}

// Set writes the opt-out sentinel. The marker has no expiry; it stays
// until the user clears it.
func (r *RedisStore) Set(ctx context.Context) error {
	return r.client.Set(ctx, KeyName, optedOutSentinel, 0).Err()
}

// Clear removes the marker.
func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, KeyName).Err()
}
