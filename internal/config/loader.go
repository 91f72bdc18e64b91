package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/zero-day-ai/medqa/internal/types"
)

// EnvPrefix prefixes environment overrides: graph.password is read from
// MEDQA_GRAPH_PASSWORD.
const EnvPrefix = "MEDQA"

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	if validator == nil {
		validator = NewValidator()
	}
	return &viperConfigLoader{validator: validator}
}

// Load reads the YAML file at path, applies environment overrides and
// ${VAR} interpolation, and validates the result. A missing file is an error.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.WrapError(types.CONFIG_NOT_FOUND, "config file not found: "+path, err)
		}
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to stat config file", err)
	}
	return l.load(path)
}

// LoadWithDefaults behaves like Load, except that a missing file (or an empty
// path) yields the defaults with environment overrides applied.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if path == "" {
		return l.load("")
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return l.load("")
	}
	return l.Load(path)
}

func (l *viperConfigLoader) load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to read config file", err)
		}
	}

	for _, key := range v.AllKeys() {
		if s, ok := v.Get(key).(string); ok && strings.Contains(s, "${") {
			v.Set(key, interpolateString(s))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newViper returns a viper instance seeded with every default, so that
// AutomaticEnv can override keys absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("lexicon.dir", d.Lexicon.Dir)
	v.SetDefault("templates.path", d.Templates.Path)

	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", d.Graph.Password)
	v.SetDefault("graph.database", d.Graph.Database)
	v.SetDefault("graph.max_connection_pool_size", d.Graph.MaxConnectionPoolSize)
	v.SetDefault("graph.max_connection_lifetime", d.Graph.MaxConnectionLifetime)
	v.SetDefault("graph.connection_acquisition_timeout", d.Graph.ConnectionAcquisitionTimeout)
	v.SetDefault("graph.query_timeout", d.Graph.QueryTimeout)
	v.SetDefault("graph.max_rows", d.Graph.MaxRows)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.delay", d.Retry.Delay)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.local_ttl", d.Cache.LocalTTL)
	v.SetDefault("cache.local_capacity", d.Cache.LocalCapacity)
	v.SetDefault("cache.redis.enabled", d.Cache.Redis.Enabled)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.namespace", d.Cache.Redis.Namespace)

	v.SetDefault("classifier.min_confidence", d.Classifier.MinConfidence)
	v.SetDefault("classifier.fallback_url", d.Classifier.FallbackURL)
	v.SetDefault("classifier.fallback_timeout", d.Classifier.FallbackTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.provider", d.Tracing.Provider)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with the variable's value. Unset
// variables are left as written.
func interpolateString(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return match
	})
}

// LoadWithDefaults loads path with the default validator.
func LoadWithDefaults(path string) (*Config, error) {
	return NewConfigLoader(nil).LoadWithDefaults(path)
}
