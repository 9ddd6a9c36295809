// Package config loads service configuration from the environment.
//
// Values come from process environment variables. Load first reads an
// optional .env file with godotenv; variables already set in the
// environment are never overridden by it.
//
// LOADING ORDER:
//
//	process env  →  wins
//	.env file    →  fills in keys the process env leaves unset
//	defaults     →  everything else (see FromEnv)
//
// Blank values count as unset, so `PORT=` in a .env file falls back to 8080.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Record Store drivers accepted by DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the fully parsed service configuration. FromEnv fills every
// field and runs Validate before returning it.
type Config struct {
	Port        int
	Environment string
	LogLevel    slog.Level

	DBDriver    string
	DBPath      string // sqlite file path
	DatabaseURL string // postgres DSN

	RedisURL        string // empty disables the metrics cache
	MetricsCacheTTL time.Duration

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	CookieSecure   bool

	// TrustProxy enables chi's RealIP middleware, which takes the client
	// address from X-Forwarded-For / X-Real-IP. Only set it behind a proxy
	// that overwrites those headers; otherwise any client can pick its own
	// rate-limit key.
	TrustProxy bool
}

// Load reads .env (if present) and the environment, then validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	cfg := &Config{
		Environment:    env,
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:         getEnv("DB_PATH", "data/daily-diet.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.MetricsCacheTTL, err = getDuration("METRICS_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", cfg.IsProduction()); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = getBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = getLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration combinations that cannot start.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("config: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	// go-redis reads a zero expiration as "never expire" and -1 as "keep
	// the current TTL".
	if c.RedisURL != "" && c.MetricsCacheTTL <= 0 {
		return fmt.Errorf("config: METRICS_CACHE_TTL must be positive when REDIS_URL is set, got %s", c.MetricsCacheTTL)
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv returns the trimmed value of key, or defaultValue when it is blank.
// The typed helpers below build on it and return an error naming the key
// when a value does not parse.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return f, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return d, nil
}

func getLevel(key string, defaultValue slog.Level) (slog.Level, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid %s value %q: %w", key, s, err)
	}
	return level, nil
}

// parseList splits a comma-separated list, dropping blank entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
