package config

import (
	"time"

	"github.com/zero-day-ai/medqa/internal/cache"
	"github.com/zero-day-ai/medqa/internal/graph"
	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/observability"
	"github.com/zero-day-ai/medqa/internal/retry"
)

// Config is the root configuration of a medqa process.
type Config struct {
	Lexicon    LexiconConfig               `mapstructure:"lexicon" yaml:"lexicon"`
	Templates  TemplatesConfig             `mapstructure:"templates" yaml:"templates"`
	Graph      GraphConfig                 `mapstructure:"graph" yaml:"graph"`
	Retry      RetryConfig                 `mapstructure:"retry" yaml:"retry"`
	Cache      CacheConfig                 `mapstructure:"cache" yaml:"cache"`
	Classifier ClassifierConfig            `mapstructure:"classifier" yaml:"classifier"`
	Logging    observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics    MetricsConfig               `mapstructure:"metrics" yaml:"metrics"`
}

// LexiconConfig locates the per-category word lists.
type LexiconConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

// TemplatesConfig optionally replaces the built-in query template catalog.
type TemplatesConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// GraphConfig contains Neo4j connection settings.
type GraphConfig struct {
	URI                          string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username                     string        `mapstructure:"username" yaml:"username"`
	Password                     string        `mapstructure:"password" yaml:"password"`
	Database                     string        `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size" validate:"min=1,max=500"`
	MaxConnectionLifetime        time.Duration `mapstructure:"max_connection_lifetime" yaml:"max_connection_lifetime" validate:"min=0"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout" yaml:"connection_acquisition_timeout" validate:"min=1s"`
	QueryTimeout                 time.Duration `mapstructure:"query_timeout" yaml:"query_timeout" validate:"min=1s"`
	MaxRows                      int           `mapstructure:"max_rows" yaml:"max_rows" validate:"min=1"`
}

// ClientConfig converts to the graph client configuration.
func (c GraphConfig) ClientConfig() graph.GraphClientConfig {
	return graph.GraphClientConfig{
		URI:                          c.URI,
		Username:                     c.Username,
		Password:                     c.Password,
		Database:                     c.Database,
		MaxConnectionPoolSize:        c.MaxConnectionPoolSize,
		MaxConnectionLifetime:        c.MaxConnectionLifetime,
		ConnectionAcquisitionTimeout: c.ConnectionAcquisitionTimeout,
		QueryTimeout:                 c.QueryTimeout,
		MaxRows:                      c.MaxRows,
	}
}

// RetryConfig bounds graph query retries.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	Delay       time.Duration `mapstructure:"delay" yaml:"delay" validate:"min=0"`
}

// Policy converts to a retry policy.
func (c RetryConfig) Policy() retry.Policy {
	return retry.Policy{MaxAttempts: c.MaxAttempts, Delay: c.Delay}
}

// CacheConfig controls the result cache and its tiers.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"min=1s"`
	LocalTTL      time.Duration `mapstructure:"local_ttl" yaml:"local_ttl" validate:"min=1s"`
	LocalCapacity uint64        `mapstructure:"local_capacity" yaml:"local_capacity"`
	Redis         RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// ResultCacheConfig converts to the cache configuration.
func (c CacheConfig) ResultCacheConfig() cache.Config {
	return cache.Config{Enabled: c.Enabled, TTL: c.TTL, LocalTTL: c.LocalTTL}
}

// RedisConfig configures the shared cache tier. When disabled only the local
// tier is used.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr      string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db" validate:"min=0,max=15"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// TierConfig converts to the Redis tier configuration.
func (c RedisConfig) TierConfig() cache.RedisConfig {
	return cache.RedisConfig{Addr: c.Addr, Password: c.Password, DB: c.DB, Namespace: c.Namespace}
}

// ClassifierConfig controls the optional model fallback.
type ClassifierConfig struct {
	MinConfidence   float64       `mapstructure:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=1"`
	FallbackURL     string        `mapstructure:"fallback_url" yaml:"fallback_url" validate:"omitempty,url"`
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout" yaml:"fallback_timeout" validate:"min=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	gc := graph.DefaultConfig()
	rp := retry.DefaultPolicy()
	cc := cache.DefaultConfig()

	return &Config{
		Lexicon: LexiconConfig{Dir: "dict"},
		Graph: GraphConfig{
			URI:                          gc.URI,
			Username:                     gc.Username,
			Password:                     gc.Password,
			Database:                     gc.Database,
			MaxConnectionPoolSize:        gc.MaxConnectionPoolSize,
			MaxConnectionLifetime:        gc.MaxConnectionLifetime,
			ConnectionAcquisitionTimeout: gc.ConnectionAcquisitionTimeout,
			QueryTimeout:                 gc.QueryTimeout,
			MaxRows:                      gc.MaxRows,
		},
		Retry: RetryConfig{MaxAttempts: rp.MaxAttempts, Delay: rp.Delay},
		Cache: CacheConfig{
			Enabled:       cc.Enabled,
			TTL:           cc.TTL,
			LocalTTL:      cc.LocalTTL,
			LocalCapacity: cache.DefaultLocalCapacity,
			Redis: RedisConfig{
				Enabled:   false,
				Addr:      "localhost:6379",
				Namespace: "medqa:",
			},
		},
		Classifier: ClassifierConfig{
			MinConfidence:   intent.DefaultMinConfidence,
			FallbackTimeout: 2 * time.Second,
		},
		Logging: observability.DefaultLoggingConfig(),
		Tracing: observability.DefaultTracingConfig(),
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
	}
}
