// Package config loads service and CLI settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/source"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
)

// Config is the full application configuration.
type Config struct {
	InputDir      string `yaml:"input_dir"`
	OutputDir     string `yaml:"output_dir"`
	Compress      bool   `yaml:"compress"`
	Workers       int    `yaml:"workers"`
	MaxInputBytes int64  `yaml:"max_input_bytes"`
	LogLevel      string `yaml:"log_level"`

	Server   ServerConfig    `yaml:"server"`
	Watch    WatchConfig     `yaml:"watch"`
	Database DatabaseConfig  `yaml:"database"`
	S3       source.S3Config `yaml:"s3"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	AllowedOrigins  []string      `yaml:"cors_allowed_origins"`
	CacheSize       int           `yaml:"cache_size"`
	Variant         string        `yaml:"viewer"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`

	// TranslateRate limits POST /api/translate per client, in requests per
	// second. Zero disables the limit.
	TranslateRate  float64 `yaml:"translate_rate"`
	TranslateBurst int     `yaml:"translate_burst"`
}

// WatchConfig configures the input directory watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// DatabaseConfig enables the PostgreSQL catalog sink when URL is set.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// Defaults.
const (
	DefaultOutputDir       = "output"
	DefaultPort            = 8080
	DefaultWorkers         = 4
	DefaultCacheSize       = 128
	DefaultMaxBodyBytes    = 10 << 20
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDebounce        = 300 * time.Millisecond
	DefaultTranslateBurst  = 10
)

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path (optional), applies environment overrides and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides fields from ASTRA_* variables, plus PORT,
// CORS_ALLOWED_ORIGINS and LOG_LEVEL as the server has always read them.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ASTRA_INPUT_DIR", &c.InputDir)
	str("ASTRA_OUTPUT_DIR", &c.OutputDir)
	boolean("ASTRA_COMPRESS", &c.Compress)
	num("ASTRA_WORKERS", &c.Workers)
	str("LOG_LEVEL", &c.LogLevel)
	str("ASTRA_LOG_LEVEL", &c.LogLevel)

	num("PORT", &c.Server.Port)
	num("ASTRA_PORT", &c.Server.Port)
	num("ASTRA_CACHE_SIZE", &c.Server.CacheSize)
	str("ASTRA_VIEWER", &c.Server.Variant)
	duration("ASTRA_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		c.Server.TrustedProxies = splitList(v)
	}
	if v, ok := lookup("ASTRA_TRANSLATE_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ASTRA_TRANSLATE_RATE: %w", err))
		} else {
			c.Server.TranslateRate = f
		}
	}

	boolean("ASTRA_WATCH", &c.Watch.Enabled)
	duration("ASTRA_WATCH_DEBOUNCE", &c.Watch.Debounce)

	str("ASTRA_DATABASE_URL", &c.Database.URL)

	str("ASTRA_S3_REGION", &c.S3.Region)
	str("ASTRA_S3_ENDPOINT", &c.S3.Endpoint)
	str("ASTRA_S3_ACCESS_KEY", &c.S3.AccessKey)
	str("ASTRA_S3_SECRET_KEY", &c.S3.SecretKey)
	boolean("ASTRA_S3_PATH_STYLE", &c.S3.PathStyle)

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	c.OutputDir = validation.DefaultOr(c.OutputDir, DefaultOutputDir)
	c.Workers = validation.DefaultOr(c.Workers, DefaultWorkers)
	c.MaxInputBytes = validation.DefaultOr(c.MaxInputBytes, source.DefaultMaxBytes)
	c.LogLevel = validation.DefaultOr(c.LogLevel, "info")

	c.Server.Port = validation.DefaultOr(c.Server.Port, DefaultPort)
	c.Server.ReadTimeout = validation.DefaultOrDuration(c.Server.ReadTimeout, DefaultReadTimeout)
	c.Server.WriteTimeout = validation.DefaultOrDuration(c.Server.WriteTimeout, DefaultWriteTimeout)
	c.Server.ShutdownTimeout = validation.DefaultOrDuration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
	c.Server.MaxBodyBytes = validation.DefaultOr(c.Server.MaxBodyBytes, DefaultMaxBodyBytes)
	c.Server.CacheSize = validation.DefaultOr(c.Server.CacheSize, DefaultCacheSize)
	c.Server.Variant = validation.DefaultOr(c.Server.Variant, "provenance")
	c.Server.TranslateBurst = validation.DefaultOr(c.Server.TranslateBurst, DefaultTranslateBurst)

	c.Watch.Debounce = validation.DefaultOrDuration(c.Watch.Debounce, DefaultDebounce)
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	return errors.Join(
		validation.NewConfigValidator("Config").
			Required("OutputDir", c.OutputDir).
			RangeInt("Workers", c.Workers, 1, 256).
			PositiveInt64("MaxInputBytes", c.MaxInputBytes).
			Custom("LogLevel", func() error {
				if !logging.ValidLevel(c.LogLevel) {
					return fmt.Errorf("unknown level %q", c.LogLevel)
				}
				return nil
			}).
			When(c.Watch.Enabled, func(cv *validation.ConfigValidator) {
				cv.Required("InputDir", c.InputDir)
			}).
			Validate(),
		c.Server.Validate(),
		validation.NewConfigValidator("Watch").
			MinDuration("Debounce", c.Watch.Debounce, 10*time.Millisecond).
			Validate(),
		validation.NewConfigValidator("Database").
			When(c.Database.URL != "", func(cv *validation.ConfigValidator) {
				cv.URL("URL", c.Database.URL, "postgres", "postgresql")
			}).
			Validate(),
		validation.NewConfigValidator("S3").
			When(c.S3.Endpoint != "", func(cv *validation.ConfigValidator) {
				cv.URL("Endpoint", c.S3.Endpoint, "http", "https")
			}).
			When(c.S3.AccessKey != "", func(cv *validation.ConfigValidator) {
				cv.Required("SecretKey", c.S3.SecretKey)
			}).
			Validate(),
	)
}

// Validate checks the server section.
func (s *ServerConfig) Validate() error {
	return validation.NewConfigValidator("Server").
		RangeInt("Port", s.Port, 1, 65535).
		MinDuration("ReadTimeout", s.ReadTimeout, time.Second).
		MinDuration("WriteTimeout", s.WriteTimeout, time.Second).
		MinDuration("ShutdownTimeout", s.ShutdownTimeout, time.Second).
		PositiveInt64("MaxBodyBytes", s.MaxBodyBytes).
		RangeInt("CacheSize", s.CacheSize, 1, 100000).
		OneOf("Variant", s.Variant, []string{"provenance", "sbom"}).
		Custom("TranslateRate", func() error {
			if s.TranslateRate < 0 {
				return fmt.Errorf("must not be negative, got %g", s.TranslateRate)
			}
			return nil
		}).
		Positive("TranslateBurst", s.TranslateBurst).
		Validate()
}

// Addr is the listen address of the server.
func (s *ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
