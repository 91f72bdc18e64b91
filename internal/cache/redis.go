package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/medqa/internal/types"
)

const scanBatch = 100

// RedisConfig configures the shared tier.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// RedisTier is a shared tier backed by Redis. Every key is stored under the
// tier's namespace, so Clear never touches foreign keys.
type RedisTier struct {
	client    redis.UniversalClient
	namespace string
	ownClient bool
}

// NewRedisTier connects to the configured Redis server.
func NewRedisTier(cfg RedisConfig) *RedisTier {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisTier{client: client, namespace: cfg.Namespace, ownClient: true}
}

// NewRedisTierWithClient wraps an existing client. Close leaves the client
// open.
func NewRedisTierWithClient(client redis.UniversalClient, namespace string) *RedisTier {
	return &RedisTier{client: client, namespace: namespace}
}

// Name returns "redis".
func (t *RedisTier) Name() string {
	return "redis"
}

func (t *RedisTier) key(k string) string {
	return t.namespace + k
}

// Get reads key. A missing key is a miss, not an error.
func (t *RedisTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := t.client.Get(ctx, t.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis get failed", err)
	}
	return v, true, nil
}

// Set writes key with an expiry of ttl.
func (t *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.client.Set(ctx, t.key(key), value, ttl).Err(); err != nil {
		return types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis set failed", err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. A missing key or a key without
// an expiry yields a negative duration.
func (t *RedisTier) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := t.client.PTTL(ctx, t.key(key)).Result()
	if err != nil {
		return 0, types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis pttl failed", err)
	}
	return d, nil
}

// Delete removes key.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.key(key)).Err(); err != nil {
		return types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis delete failed", err)
	}
	return nil
}

// DeletePrefix scans for keys under prefix and deletes them in batches. The
// scan completes before the first delete so that no key is skipped.
func (t *RedisTier) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	match := escapeGlob(t.key(prefix)) + "*"

	var keys []string
	iter := t.client.Scan(ctx, 0, match, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis scan failed", err)
	}

	deleted := 0
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		n, err := t.client.Del(ctx, keys[start:end]...).Result()
		deleted += int(n)
		if err != nil {
			return deleted, types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis delete failed", err)
		}
	}
	return deleted, nil
}

// Clear removes every key in the namespace.
func (t *RedisTier) Clear(ctx context.Context) error {
	_, err := t.DeletePrefix(ctx, "")
	return err
}

// Ping checks the server connection.
func (t *RedisTier) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return types.WrapRetryableError(types.CACHE_UNAVAILABLE, "redis ping failed", err)
	}
	return nil
}

// Close closes the client if the tier created it.
func (t *RedisTier) Close() error {
	if !t.ownClient {
		return nil
	}
	return t.client.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
