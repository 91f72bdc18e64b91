// Package cache stores graph answers keyed by question in a local in-process
// tier and an optional shared Redis tier.
package cache

import (
	"context"
	"time"
)

// Tier is one storage level of the result cache. Values are opaque bytes.
type Tier interface {
	// Name identifies the tier in logs and metrics.
	Name() string

	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix and returns how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Clear removes every key owned by the tier.
	Clear(ctx context.Context) error

	// Close releases the tier's resources.
	Close() error
}

// Pinger is implemented by tiers that can check their backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}
