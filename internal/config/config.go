// Package config holds the urlcollector configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/company-url-collector/infrastructure/config"
	infraes "github.com/jonesrussell/company-url-collector/infrastructure/elasticsearch"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/infrastructure/profiling"
	infraredis "github.com/jonesrussell/company-url-collector/infrastructure/redis"
	"github.com/jonesrussell/company-url-collector/internal/canonical"
	"github.com/jonesrussell/company-url-collector/internal/index"
	"github.com/jonesrussell/company-url-collector/internal/scheduler"
	"github.com/jonesrussell/company-url-collector/internal/search"
)

const (
	defaultServerPort    = 5000
	defaultServerTimeout = 30 * time.Second
	// Collections wait on the search provider, so writes get much longer.
	defaultWriteTimeout  = 5 * time.Minute
	defaultStorageDir    = "data"
	defaultRedisAddress  = "localhost:6379"
	defaultSearchTimeout = 2 * time.Minute
)

// Storage backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	Debug         bool                `env:"APP_DEBUG" yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       infralogger.Config  `yaml:"logging"`
	Storage       StorageConfig       `yaml:"storage"`
	Search        SearchConfig        `yaml:"search"`
	Classifier    ClassifierConfig    `yaml:"classifier"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Scheduler     scheduler.Config    `yaml:"scheduler"`
	Profiling     profiling.Config    `yaml:"profiling"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"  yaml:"host"`
	Port         int           `env:"SERVER_PORT"  yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type AuthConfig struct {
	// JWTSecret protects /api/v1 when set.
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// StorageConfig selects where collections live.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" yaml:"backend"`
	Dir     string `env:"STORAGE_DIR"     yaml:"dir"`
}

// SearchConfig selects and tunes the search provider.
type SearchConfig struct {
	Provider   string                  `env:"SEARCH_PROVIDER" yaml:"provider"`
	Perplexity search.PerplexityConfig `yaml:"perplexity"`
	Anthropic  search.AnthropicConfig  `yaml:"anthropic"`
	Resilience search.ResilienceConfig `yaml:"resilience"`
	RateLimit  RateLimitConfig         `yaml:"rate_limit"`
}

// RateLimitConfig caps provider calls. A zero RPS means unlimited.
type RateLimitConfig struct {
	RPS   float64 `env:"SEARCH_RATE_LIMIT_RPS" yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ClassifierConfig struct {
	// RulesFile optionally replaces the built-in block patterns and terms.
	RulesFile  string `env:"CLASSIFIER_RULES_FILE" yaml:"rules_file"`
	DomainMode string `env:"DOMAIN_MODE"           yaml:"domain_mode"`
	Watch      bool   `env:"CLASSIFIER_WATCH"      yaml:"watch"`
}

// RedisConfig is used by the redis storage backend and event publishing.
type RedisConfig struct {
	infraredis.Config `yaml:",inline"`

	EventsEnabled bool `env:"REDIS_EVENTS_ENABLED" yaml:"events_enabled"`
}

type ElasticsearchConfig struct {
	infraes.Config `yaml:",inline"`

	Enabled bool   `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	Index   string `env:"ELASTICSEARCH_INDEX"   yaml:"index"`
}

// RedisRequired reports whether any enabled feature needs a Redis client.
func (c *Config) RedisRequired() bool {
	return c.Storage.Backend == BackendRedis || c.Redis.EventsEnabled
}

func (c *Config) Validate() error {
	errs := []error{
		infraconfig.ValidatePort("server.port", c.Server.Port),
		infraconfig.ValidateLogLevel(c.Logging.Level),
		infraconfig.ValidateOneOf("storage.backend", c.Storage.Backend, BackendFile, BackendRedis),
		infraconfig.ValidateOneOf("search.provider", c.Search.Provider,
			search.ProviderPerplexity, search.ProviderAnthropic),
	}
	if c.Storage.Backend == BackendFile {
		errs = append(errs, infraconfig.ValidateRequired("storage.dir", c.Storage.Dir))
	}
	if c.Search.RateLimit.RPS < 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "search.rate_limit.rps", Message: "must not be negative"})
	}
	if _, err := canonical.ParseMode(c.Classifier.DomainMode); err != nil {
		errs = append(errs, &infraconfig.ValidationError{Field: "classifier.domain_mode", Message: err.Error()})
	}
	if c.RedisRequired() {
		errs = append(errs, infraconfig.ValidateRequired("redis.address", c.Redis.Address))
	}
	if c.Elasticsearch.Enabled {
		errs = append(errs, infraconfig.ValidateURL("elasticsearch.url", c.Elasticsearch.URL))
	}
	return errors.Join(errs...)
}

// Load reads path (which may not exist), applies defaults and the
// environment, then validates.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, SetDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills unset fields. Provider-specific defaults are applied by
// the clients themselves.
func SetDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	cfg.Logging.SetDefaults()
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultStorageDir
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = search.ProviderPerplexity
	}
	cfg.Search.Perplexity.SetDefaults()
	cfg.Search.Anthropic.SetDefaults()
	if cfg.Search.Resilience.Timeout == 0 {
		cfg.Search.Resilience.Timeout = defaultSearchTimeout
	}
	if cfg.Search.RateLimit.Burst <= 0 {
		cfg.Search.RateLimit.Burst = 1
	}
	if cfg.Classifier.DomainMode == "" {
		cfg.Classifier.DomainMode = string(canonical.ModeFixed)
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	cfg.Elasticsearch.SetDefaults()
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = index.DefaultIndex
	}
	cfg.Profiling.SetDefaults()
}
