package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultLocalCapacity bounds the number of entries held in process.
const DefaultLocalCapacity = 10000

// LocalTier is an in-process tier with per-item expiry.
type LocalTier struct {
	items     *ttlcache.Cache[string, []byte]
	closeOnce sync.Once
}

// NewLocalTier creates a local tier holding at most capacity entries. Zero
// capacity uses DefaultLocalCapacity.
func NewLocalTier(capacity uint64) *LocalTier {
	if capacity == 0 {
		capacity = DefaultLocalCapacity
	}
	items := ttlcache.New[string, []byte](
		ttlcache.WithCapacity[string, []byte](capacity),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &LocalTier{items: items}
}

// Name returns "local".
func (t *LocalTier) Name() string {
	return "local"
}

// Get returns a copy of the stored value.
func (t *LocalTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item := t.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	v := item.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value.
func (t *LocalTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	t.items.Set(key, v, ttl)
	return nil
}

// Delete removes key.
func (t *LocalTier) Delete(ctx context.Context, key string) error {
	t.items.Delete(key)
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (t *LocalTier) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	for _, key := range t.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			t.items.Delete(key)
			n++
		}
	}
	return n, nil
}

// Clear removes every entry.
func (t *LocalTier) Clear(ctx context.Context) error {
	t.items.DeleteAll()
	return nil
}

// Len returns the number of stored entries, expired ones included until the
// next cleanup.
func (t *LocalTier) Len() int {
	return t.items.Len()
}

// Close stops the expiry loop.
func (t *LocalTier) Close() error {
	t.closeOnce.Do(t.items.Stop)
	return nil
}
