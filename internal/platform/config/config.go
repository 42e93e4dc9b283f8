// Package config loads typed application configuration from built-in
// defaults, an optional YAML file, a .env file, and the process
// environment, in that order of increasing precedence. The .env values
// are loaded into the environment without overriding variables already
// set there, so they beat YAML but lose to the real environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	PortalBaseURL   string        `yaml:"portal_base_url" env:"PORTAL_BASE_URL"`
}

// DatabaseConfig controls persistence.
type DatabaseConfig struct {
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"DATABASE_CONNECT_TIMEOUT"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"DATABASE_QUERY_TIMEOUT"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	JWTSecret   string        `yaml:"-" env:"JWT_SECRET"`
	AccessTTL   time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL"`
	RefreshTTL  time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL"`
	PortalTTL   time.Duration `yaml:"portal_ttl" env:"PORTAL_TOKEN_TTL"`
	BCryptCost  int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	ClockSkew   time.Duration `yaml:"clock_skew" env:"JWT_CLOCK_SKEW"`
}

// RateLimitConfig controls the per-IP token bucket middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// SMSConfig gates the (out-of-scope) SMS delivery transport; the template
// renderer itself is always available regardless of this flag.
type SMSConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLE_SMS"`
	UploadPath string `yaml:"upload_path" env:"UPLOAD_PATH"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	SMS       SMSConfig       `yaml:"sms"`
}

// defaults returns a Config populated with the spec's documented defaults.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8847,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			PortalBaseURL:   "http://localhost:8847/api/portal",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  2 * time.Second,
			QueryTimeout:    30 * time.Second,
		},
		Auth: AuthConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			PortalTTL:  30 * 24 * time.Hour,
			BCryptCost: 11,
			ClockSkew:  60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if present), an optional YAML defaults file named by
// CONFIG_FILE, then overlays environment variables, and validates the
// result. JWT_SECRET is mandatory: startup must fail without it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !strings.Contains(err.Error(), "none of the target fields were set") {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	// envdecode has no slice support; CORS_ORIGINS is a comma-separated
	// allow-list handled like the teacher's TracingConfig.AttributesEnv.
	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); raw != "" {
		cfg.Server.CORSOrigins = splitAndTrim(raw)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8847
	}
	return nil
}

// Addr returns the host:port the HTTP server should bind.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
