package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as JSON strings under a common key prefix
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(redisURL, keyPrefix string, databaseNum, maxRetries int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DB = databaseNum

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &RedisStore{client: client, prefix: keyPrefix, maxRetries: maxRetries}, nil
}

// Get decodes the value at key into v
func (rs *RedisStore) Get(ctx context.Context, key string, v interface{}) error {
	data, err := rs.client.Get(ctx, rs.redisKey(key)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Put encodes v and writes it at key, retrying transient failures
func (rs *RedisStore) Put(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	write := func() error {
		return rs.client.Set(ctx, rs.redisKey(key), data, 0).Err()
	}

	bo := backoff.WithContext(newBackoff(rs.maxRetries), ctx)
	if err := backoff.Retry(write, bo); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix
func (rs *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := rs.redisKey(prefix) + "*"
	var keys []string
	iter := rs.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), rs.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

// Close closes the Redis connection
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) redisKey(key string) string {
	return rs.prefix + ":" + key
}
