// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements [SessionStore] using Redis.
type RedisSessionStore struct {
	client redis.Cmdable
}

// NewRedisSessionStore creates a new Redis-backed [SessionStore].
func NewRedisSessionStore(client redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

/*
Get retrieves the value stored under key.

Returns:
  - string: Stored value
  - error: ErrCacheMiss if the key is absent or expired, or connectivity errors
*/
func (store *RedisSessionStore) Get(ctx context.Context, key string) (string, error) {
	value, err := store.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("redis_session_get_failed: %w", err)
	}

	return value, nil
}

// Set stores value under key with the given TTL.
func (store *RedisSessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := store.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

// Delete removes key from Redis.
func (store *RedisSessionStore) Delete(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}
