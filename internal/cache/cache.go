package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a prefixed Redis string cache. Keys are hashed so arbitrary user
// text can be used as a key. A nil client turns every call into a miss.
// Redis errors are logged and treated as misses.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a Store whose keys start with prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// makeKey creates a cache key by hashing the raw key.
func (s *Store) makeKey(raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", s.prefix, hash)
}

// Get retrieves a cached value. ok is false on a miss.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s == nil || s.client == nil {
		return "", false
	}

	data, err := s.client.Get(ctx, s.makeKey(key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache get failed", "prefix", s.prefix, "error", err)
		return "", false
	}
	return data, true
}

// Set stores a value with the given TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Set(ctx, s.makeKey(key), value, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache set failed", "prefix", s.prefix, "error", err)
	}
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Del(ctx, s.makeKey(key)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache delete failed", "prefix", s.prefix, "error", err)
	}
}
