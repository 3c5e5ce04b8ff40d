// Package cache implements the optional TTL-bound per-file finding cache.
// Keys are content hashes of (path + contents + analyzer-set version), so a
// source edit or a rule change invalidates naturally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/constants"
)

const keyPrefix = "warden:findings:"

// Key derives the cache key for one source file
func Key(filePath string, contents []byte) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write(contents)
	h.Write([]byte(constants.AnalyzerSetVersion))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// RedisCache implements domain.FindingCache on Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis from a connection URL and verifies the
// connection with a short ping
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Get returns the cached finding set for a key, if present
func (c *RedisCache) Get(ctx context.Context, key string) ([]*domain.Finding, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache read failed: %w", err)
	}

	var findings []*domain.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		// a corrupt entry behaves like a miss
		return nil, false, nil
	}
	return findings, true, nil
}

// Set stores a finding set under the key with the given TTL
func (c *RedisCache) Set(ctx context.Context, key string, findings []*domain.Finding, ttl time.Duration) error {
	data, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
