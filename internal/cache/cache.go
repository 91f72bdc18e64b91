package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/metrics"
	"github.com/zero-day-ai/medqa/internal/types"
)

const (
	// KeyPrefix namespaces question keys.
	KeyPrefix = "qa:"

	// DefaultTTL applies when Store is given a non-positive ttl.
	DefaultTTL = 24 * time.Hour

	// DefaultLocalTTL caps how long the local tier keeps an entry.
	DefaultLocalTTL = 5 * time.Minute
)

// Key returns the cache key of question. The question bytes are hashed as
// given; callers that want normalization must apply it first.
func Key(question string) string {
	sum := md5.Sum([]byte(question))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Config controls the result cache.
type Config struct {
	Enabled  bool
	TTL      time.Duration
	LocalTTL time.Duration
}

// DefaultConfig returns an enabled cache with the default expiries.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		TTL:      DefaultTTL,
		LocalTTL: DefaultLocalTTL,
	}
}

// ResultCache stores normalized graph records per question. A nil or disabled
// ResultCache never hits and never stores.
type ResultCache struct {
	cfg     Config
	local   Tier
	shared  Tier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ResultCache) {
		c.metrics = m
	}
}

// New creates a result cache. Either tier may be nil.
func New(cfg Config, local, shared Tier, logger *slog.Logger, opts ...Option) *ResultCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = DefaultLocalTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &ResultCache{
		cfg:    cfg,
		local:  local,
		shared: shared,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) enabled() bool {
	return c != nil && c.cfg.Enabled && (c.local != nil || c.shared != nil)
}

func (c *ResultCache) tiers() []Tier {
	var out []Tier
	if c.local != nil {
		out = append(out, c.local)
	}
	if c.shared != nil {
		out = append(out, c.shared)
	}
	return out
}

// expiryReader is implemented by tiers that can report the remaining lifetime
// of a key.
type expiryReader interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Lookup returns the cached records for question. The local tier is consulted
// first; a shared-tier hit is copied into the local tier for no longer than
// the shared entry has left to live. Tier failures count as misses.
func (c *ResultCache) Lookup(ctx context.Context, question string) ([]graph.Record, bool) {
	if !c.enabled() {
		return nil, false
	}
	key := Key(question)

	if c.local != nil {
		if records, ok := c.lookupTier(ctx, c.local, key); ok {
			return records, true
		}
	}
	if c.shared == nil {
		return nil, false
	}

	records, ok := c.lookupTier(ctx, c.shared, key)
	if !ok {
		return nil, false
	}
	if c.local != nil {
		if data, err := json.Marshal(records); err == nil {
			c.setTier(ctx, c.local, key, data, c.backfillTTL(ctx, key))
		}
	}
	return records, true
}

// backfillTTL caps the local copy of a shared entry at the shared entry's
// remaining lifetime, so an invalidation by expiry is seen by every process
// within the same window.
func (c *ResultCache) backfillTTL(ctx context.Context, key string) time.Duration {
	ttl := c.cfg.LocalTTL
	r, ok := c.shared.(expiryReader)
	if !ok {
		return ttl
	}
	remaining, err := r.TTL(ctx, key)
	if err != nil || remaining <= 0 {
		return ttl
	}
	return min(ttl, remaining)
}

func (c *ResultCache) lookupTier(ctx context.Context, tier Tier, key string) ([]graph.Record, bool) {
	data, ok, err := tier.Get(ctx, key)
	if err != nil {
		c.metrics.ObserveCacheLookup(tier.Name(), "error")
		c.logger.WarnContext(ctx, "cache lookup failed", "tier", tier.Name(), "key", key, "error", err)
		return nil, false
	}
	if !ok {
		c.metrics.ObserveCacheLookup(tier.Name(), "miss")
		return nil, false
	}

	records, err := decodeRecords(data)
	if err != nil || len(records) == 0 {
		c.metrics.ObserveCacheLookup(tier.Name(), "error")
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "tier", tier.Name(), "key", key,
			"error", types.WrapError(types.CACHE_ENCODING, "decode cached records", err))
		_ = tier.Delete(ctx, key)
		return nil, false
	}
	c.metrics.ObserveCacheLookup(tier.Name(), "hit")
	return records, true
}

// decodeRecords is the inverse of json.Marshal on records. Numbers come back
// as int64 when they are integral and float64 otherwise, matching the types
// the graph driver returns.
func decodeRecords(data []byte) ([]graph.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []graph.Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	for i := range records {
		for k, v := range records[i].Properties {
			records[i].Properties[k] = restoreNumbers(v)
		}
	}
	return records, nil
}

func restoreNumbers(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		for i := range v {
			v[i] = restoreNumbers(v[i])
		}
		return v
	case map[string]any:
		for k := range v {
			v[k] = restoreNumbers(v[k])
		}
		return v
	default:
		return v
	}
}

// Store saves records for question. Empty results are never stored. A
// non-positive ttl uses the configured default; the local tier never keeps an
// entry longer than its ceiling.
func (c *ResultCache) Store(ctx context.Context, question string, records []graph.Record, ttl time.Duration) {
	if !c.enabled() || len(records) == 0 {
		return
	}
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode records for cache",
			"error", types.WrapError(types.CACHE_ENCODING, "encode records", err))
		return
	}

	key := Key(question)
	if c.local != nil {
		c.setTier(ctx, c.local, key, data, min(ttl, c.cfg.LocalTTL))
	}
	if c.shared != nil {
		c.setTier(ctx, c.shared, key, data, ttl)
	}
}

func (c *ResultCache) setTier(ctx context.Context, tier Tier, key string, data []byte, ttl time.Duration) {
	err := tier.Set(ctx, key, data, ttl)
	c.metrics.ObserveCacheStore(tier.Name(), err == nil)
	if err != nil {
		c.logger.WarnContext(ctx, "cache store failed", "tier", tier.Name(), "key", key, "error", err)
	}
}

// Invalidate removes entries from every tier. An empty prefix clears the
// tiers entirely; otherwise keys starting with prefix are removed. The count
// is the number of keys removed across tiers.
func (c *ResultCache) Invalidate(ctx context.Context, prefix string) (int, error) {
	if c == nil {
		return 0, nil
	}

	var errs []error
	total := 0
	for _, tier := range c.tiers() {
		if prefix == "" {
			if err := tier.Clear(ctx); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		n, err := tier.DeletePrefix(ctx, prefix)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation incomplete", "prefix", prefix, "error", err)
		return total, err
	}
	c.logger.InfoContext(ctx, "cache invalidated", "prefix", prefix, "removed", total)
	return total, nil
}

// Health reports the state of the shared tier. A cache without a pingable
// shared tier is always healthy.
func (c *ResultCache) Health(ctx context.Context) types.HealthStatus {
	if !c.enabled() {
		return types.Healthy("cache disabled")
	}
	p, ok := c.shared.(Pinger)
	if !ok {
		return types.Healthy("local cache")
	}
	if err := p.Ping(ctx); err != nil {
		return types.Degraded("shared cache unreachable: " + err.Error())
	}
	return types.Healthy("shared cache reachable")
}

// Close closes both tiers.
func (c *ResultCache) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, tier := range c.tiers() {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
