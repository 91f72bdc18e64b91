package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/medqa/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medqa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "dict", cfg.Lexicon.Dir)
	assert.Empty(t, cfg.Templates.Path)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, 30*time.Second, cfg.Graph.QueryTimeout)
	assert.Equal(t, 1000, cfg.Graph.MaxRows)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.LocalTTL)
	assert.False(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, 0.7, cfg.Classifier.MinConfidence)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)

	require.NoError(t, NewValidator().Validate(cfg))
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()

	gc := cfg.Graph.ClientConfig()
	assert.Equal(t, cfg.Graph.URI, gc.URI)
	assert.Equal(t, cfg.Graph.MaxRows, gc.MaxRows)
	require.NoError(t, gc.Validate())

	p := cfg.Retry.Policy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)

	cc := cfg.Cache.ResultCacheConfig()
	assert.True(t, cc.Enabled)
	assert.Equal(t, cfg.Cache.TTL, cc.TTL)

	rc := cfg.Cache.Redis.TierConfig()
	assert.Equal(t, "localhost:6379", rc.Addr)
	assert.Equal(t, "medqa:", rc.Namespace)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
lexicon:
  dir: /srv/medqa/dict
graph:
  uri: bolt://graph:7687
  username: reader
  query_timeout: 10s
  max_rows: 200
retry:
  max_attempts: 5
  delay: 250ms
cache:
  ttl: 1h
  local_ttl: 1m
  redis:
    enabled: true
    addr: redis:6379
logging:
  level: debug
  format: json
`)
	cfg, err := NewConfigLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/medqa/dict", cfg.Lexicon.Dir)
	assert.Equal(t, "bolt://graph:7687", cfg.Graph.URI)
	assert.Equal(t, "reader", cfg.Graph.Username)
	assert.Equal(t, "password", cfg.Graph.Password)
	assert.Equal(t, 10*time.Second, cfg.Graph.QueryTimeout)
	assert.Equal(t, 200, cfg.Graph.MaxRows)
	assert.Equal(t, 50, cfg.Graph.MaxConnectionPoolSize)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, time.Minute, cfg.Cache.LocalTTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "medqa:", cfg.Cache.Redis.Namespace)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Setenv("NEO4J_PASSWORD", "s3cret")
	t.Setenv("REDIS_PASSWORD", "")

	cfg, err := NewConfigLoader(nil).Load(filepath.Join("..", "..", "configs", "medqa.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	def.Graph.Password = "s3cret"
	def.Cache.Redis.Password = "${REDIS_PASSWORD}"
	assert.Equal(t, def, cfg)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("MEDQA_GRAPH_URI", "neo4j://cluster:7687")
	t.Setenv("MEDQA_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("MEDQA_CACHE_ENABLED", "false")

	path := writeConfig(t, "graph:\n  uri: bolt://file:7687\n")
	cfg, err := NewConfigLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "neo4j://cluster:7687", cfg.Graph.URI)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_Interpolation(t *testing.T) {
	t.Setenv("NEO4J_SECRET", "s3cret")

	path := writeConfig(t, `
graph:
  password: ${NEO4J_SECRET}
cache:
  redis:
    password: ${MEDQA_TEST_UNSET_VARIABLE}
`)
	cfg, err := NewConfigLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Graph.Password)
	assert.Equal(t, "${MEDQA_TEST_UNSET_VARIABLE}", cfg.Cache.Redis.Password)
}

func TestLoad_Errors(t *testing.T) {
	loader := NewConfigLoader(nil)

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, types.CONFIG_NOT_FOUND, types.CodeOf(err))

	_, err = loader.Load(writeConfig(t, "graph: [unterminated"))
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))

	_, err = loader.Load(writeConfig(t, "retry:\n  max_attempts: 0\n"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "retry.max_attempts must be at least 1")
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	t.Setenv("MEDQA_LEXICON_DIR", "/opt/dict")
	cfg, err = LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/dict", cfg.Lexicon.Dir)

	path := writeConfig(t, "metrics:\n  enabled: true\n  addr: :9100\n")
	cfg, err = LoadWithDefaults(path)
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing lexicon dir", func(c *Config) { c.Lexicon.Dir = "" }, "lexicon.dir is required"},
		{"missing graph uri", func(c *Config) { c.Graph.URI = "" }, "graph.uri is required"},
		{"zero max rows", func(c *Config) { c.Graph.MaxRows = 0 }, "graph.max_rows must be at least 1"},
		{"too many attempts", func(c *Config) { c.Retry.MaxAttempts = 11 }, "retry.max_attempts must be at most 10"},
		{"confidence above one", func(c *Config) { c.Classifier.MinConfidence = 1.5 }, "classifier.min_confidence must be at most 1"},
		{"bad fallback url", func(c *Config) { c.Classifier.FallbackURL = "not a url" }, "classifier.fallback_url must be a valid URL"},
		{"redis without addr", func(c *Config) {
			c.Cache.Redis.Enabled = true
			c.Cache.Redis.Addr = ""
		}, "cache.redis.addr is required"},
		{"metrics without addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}, "metrics.addr is required"},
		{"local ttl above ttl", func(c *Config) { c.Cache.LocalTTL = 48 * time.Hour }, "cache.local_ttl must not exceed cache.ttl"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging: invalid log level"},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Provider = "otlp"
		}, "tracing: endpoint is required"},
	}
	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := v.Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, NewValidator().Validate(nil))
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Graph.URI = ""
	cfg.Retry.MaxAttempts = 0

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph.uri is required")
	assert.Contains(t, err.Error(), "retry.max_attempts must be at least 1")
}

func TestInterpolateString(t *testing.T) {
	t.Setenv("MEDQA_TEST_HOST", "db")
	assert.Equal(t, "bolt://db:7687", interpolateString("bolt://${MEDQA_TEST_HOST}:7687"))
	assert.Equal(t, "plain", interpolateString("plain"))
	assert.Equal(t, "${MEDQA_TEST_NOPE}", interpolateString("${MEDQA_TEST_NOPE}"))
}

func TestFormatFieldPath(t *testing.T) {
	assert.Equal(t, "graph.max_rows", formatFieldPath("Config.graph.max_rows"))
	assert.Equal(t, "Config", formatFieldPath("Config"))
}
