package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles Redis operations: auth nonce replay tracking and
// rate limit counters. The broadcast transport shares the same client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware and transport.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// nonceKey returns the key for nonce tracking.
func nonceKey(peerID, nonce string) string {
	return fmt.Sprintf("nonce:%s:%s", peerID, nonce)
}

// IsNonceUsed checks if a nonce has been used.
func (s *RedisStore) IsNonceUsed(ctx context.Context, peerID, nonce string) bool {
	exists, _ := s.client.Exists(ctx, nonceKey(peerID, nonce)).Result()
	return exists > 0
}

// MarkNonceUsed marks a nonce as used with a TTL.
func (s *RedisStore) MarkNonceUsed(ctx context.Context, peerID, nonce string, ttl time.Duration) {
	s.client.Set(ctx, nonceKey(peerID, nonce), "1", ttl)
}
