package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Catalog source kinds.
const (
	SourceSQLite = "sqlite"
	SourceJSON   = "json"
	SourceRedis  = "redis"
)

// ErrInvalidConfig is returned by Validate and Load for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// RedisConfig locates a catalog stored in Redis.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"-" yaml:"password" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
	Prefix   string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// Config holds application settings.
type Config struct {
	// Catalog source: sqlite | json | redis.
	Source      string      `json:"source" yaml:"source" mapstructure:"source"`
	SQLitePath  string      `json:"sqlite_path" yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatasetPath string      `json:"dataset_path" yaml:"dataset_path" mapstructure:"dataset_path"`
	Redis       RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`

	ListenAddr string `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`

	// SearchTimeout bounds one package search issued through the API.
	// Zero disables the deadline.
	SearchTimeout    time.Duration `json:"search_timeout" yaml:"search_timeout" mapstructure:"search_timeout"`
	BatchConcurrency int           `json:"batch_concurrency" yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	// ExclusionMode: restore | accumulate.
	ExclusionMode string `json:"exclusion_mode" yaml:"exclusion_mode" mapstructure:"exclusion_mode"`

	Verbose bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Source:     SourceSQLite,
		SQLitePath: "tours.db",
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "tourplan:",
		},
		ListenAddr:       "127.0.0.1:13380",
		SearchTimeout:    30 * time.Second,
		BatchConcurrency: 4,
		ExclusionMode:    "restore",
	}
}

// Load reads an optional YAML file over the defaults, then applies
// TOURPLAN_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var m map[string]interface{}
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := decode(m, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(m map[string]interface{}, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

func applyEnv(cfg *Config) error {
	cfg.Source = envOrDefault("TOURPLAN_SOURCE", cfg.Source)
	cfg.SQLitePath = envOrDefault("TOURPLAN_SQLITE_PATH", cfg.SQLitePath)
	cfg.DatasetPath = envOrDefault("TOURPLAN_DATASET", cfg.DatasetPath)
	cfg.Redis.Addr = envOrDefault("TOURPLAN_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envOrDefault("TOURPLAN_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.Prefix = envOrDefault("TOURPLAN_REDIS_PREFIX", cfg.Redis.Prefix)
	cfg.ListenAddr = envOrDefault("TOURPLAN_LISTEN", cfg.ListenAddr)
	cfg.ExclusionMode = envOrDefault("TOURPLAN_EXCLUSION_MODE", cfg.ExclusionMode)

	if v := os.Getenv("TOURPLAN_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TOURPLAN_REDIS_DB=%q", ErrInvalidConfig, v)
		}
		cfg.Redis.DB = n
	}
	if v := os.Getenv("TOURPLAN_SEARCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: TOURPLAN_SEARCH_TIMEOUT=%q", ErrInvalidConfig, v)
		}
		cfg.SearchTimeout = d
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite source needs sqlite_path", ErrInvalidConfig)
		}
	case SourceJSON:
		if c.DatasetPath == "" {
			return fmt.Errorf("%w: json source needs dataset_path", ErrInvalidConfig)
		}
	case SourceRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis source needs redis.addr", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("%w: batch_concurrency must be positive, got %d", ErrInvalidConfig, c.BatchConcurrency)
	}
	if c.SearchTimeout < 0 {
		return fmt.Errorf("%w: negative search_timeout", ErrInvalidConfig)
	}
	switch c.ExclusionMode {
	case "restore", "accumulate":
	default:
		return fmt.Errorf("%w: unknown exclusion_mode %q", ErrInvalidConfig, c.ExclusionMode)
	}
	return nil
}
