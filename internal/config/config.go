// Package config loads poolside settings from an optional config.yaml and
// POOLSIDE_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to every environment key, e.g. POOLSIDE_ADDR.
const EnvPrefix = "POOLSIDE"

// Config holds all configuration values.
type Config struct {
	Addr            string        `mapstructure:"ADDR"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	UpstreamURL     string        `mapstructure:"UPSTREAM_URL"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	DBPath          string        `mapstructure:"DB_PATH"`
	CSRFKeyHex      string        `mapstructure:"CSRF_KEY"`
	TrustedOrigins  []string      `mapstructure:"TRUSTED_ORIGINS"`
	RatePerSecond   float64       `mapstructure:"RATE_PER_SECOND"`
	RateBurst       int           `mapstructure:"RATE_BURST"`
	SuccessTTL      time.Duration `mapstructure:"SUCCESS_TTL"`
	ViewerIdle      time.Duration `mapstructure:"VIEWER_IDLE"`
	TimetableDays   []string      `mapstructure:"TIMETABLE_DAYS"`
	SlowRequestMs   int           `mapstructure:"SLOW_REQUEST_MS"`
	AdminToken      string        `mapstructure:"ADMIN_TOKEN"`
}

// Validation errors
var (
	ErrMissingUpstream = errors.New("UPSTREAM_URL is required")
	ErrBadCSRFKey      = errors.New("CSRF_KEY must be 64 hex characters (32 bytes)")
	ErrCSRFKeyRequired = errors.New("CSRF_KEY is required in production")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("UPSTREAM_URL", "http://localhost:8000")
	v.SetDefault("UPSTREAM_TIMEOUT", time.Duration(0)) // zero leaves timing to the transport
	v.SetDefault("DB_PATH", "poolside.db")
	v.SetDefault("CSRF_KEY", "")
	v.SetDefault("TRUSTED_ORIGINS", []string{"localhost:8080", "127.0.0.1:8080"})
	v.SetDefault("RATE_PER_SECOND", 10.0)
	v.SetDefault("RATE_BURST", 20)
	v.SetDefault("SUCCESS_TTL", 3*time.Second)
	v.SetDefault("VIEWER_IDLE", 30*time.Minute)
	v.SetDefault("TIMETABLE_DAYS", []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"})
	v.SetDefault("SLOW_REQUEST_MS", 200)
	v.SetDefault("ADMIN_TOKEN", "")
}

// Load reads config.yaml from "." or "./config" (or the given paths) and
// overlays POOLSIDE_* environment variables. A missing file is not an error.
// PRE: none
// POST: Returns a validated Config
func Load(paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		zap.L().Debug("config_file_not_found", zap.Strings("paths", paths))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.TrustedOrigins = splitList(cfg.TrustedOrigins)
	cfg.TimetableDays = splitList(cfg.TimetableDays)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.UpstreamURL) == "" {
		return ErrMissingUpstream
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("UPSTREAM_URL %q must be an absolute http(s) URL", c.UpstreamURL)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("RATE_PER_SECOND must be positive, got %v", c.RatePerSecond)
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("RATE_BURST must be positive, got %d", c.RateBurst)
	}
	if c.CSRFKeyHex == "" && c.IsProduction() {
		return ErrCSRFKeyRequired
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// CSRFKey returns the 32-byte CSRF secret. Outside production a missing key
// is replaced by a random one, so forms do not survive a restart.
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRFKeyHex != "" {
		key, err := hex.DecodeString(c.CSRFKeyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrBadCSRFKey
		}
		return key, nil
	}
	if c.IsProduction() {
		return nil, ErrCSRFKeyRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	zap.L().Warn("csrf_key_random", zap.String("hint", "set POOLSIDE_CSRF_KEY to keep forms valid across restarts"))
	return key, nil
}

// splitList accepts both YAML lists and a single comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
