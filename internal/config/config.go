// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultJWTSecret is accepted in development only.
const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds the configuration for the query API and its collaborators.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	Env        string // "development" (default) or "production"
	LogLevel   string // debug, info, warn, error (default "info")

	MetaDBPath string // SQLite metastore holding catalog tables and API keys
	DuckDBPath string // DuckDB database file, empty for in-memory

	CatalogFile    string // optional YAML catalog imported at startup
	CatalogRefresh string // cron spec for catalog snapshot reloads

	DefaultLimit        uint64 // row cap for user queries
	DefaultTenantColumn string // tenant column for catalog entries without one
	MaxNestingDepth     int
	MaxQueryBytes       int
	QueryTimeout        time.Duration

	// StrictInternalErrors panics on transpiler invariant violations.
	StrictInternalErrors bool

	JWTSecret string

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:          envDefault("LISTEN_ADDR", ":8080"),
		Env:                 envDefault("ENV", "development"),
		LogLevel:            envDefault("LOG_LEVEL", "info"),
		MetaDBPath:          envDefault("META_DB_PATH", "sqlscope_meta.sqlite"),
		DuckDBPath:          os.Getenv("DUCKDB_PATH"),
		CatalogFile:         os.Getenv("CATALOG_FILE"),
		CatalogRefresh:      envDefault("CATALOG_REFRESH", "@every 30s"),
		DefaultTenantColumn: envDefault("DEFAULT_TENANT_COLUMN", "project_id"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.DefaultLimit, err = parseUintEnv("DEFAULT_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.MaxNestingDepth, err = parseIntEnv("MAX_NESTING_DEPTH", 64); err != nil {
		return nil, err
	}
	if cfg.MaxQueryBytes, err = parseIntEnv("MAX_QUERY_BYTES", 64*1024); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseIntEnv("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	cfg.RateLimitRPS = 20
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", v)
		}
		cfg.RateLimitRPS = f
	}
	cfg.QueryTimeout = 30 * time.Second
	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("QUERY_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.QueryTimeout = d
	}
	cfg.StrictInternalErrors = parseBoolEnvDefault("STRICT_INTERNAL_ERRORS", false)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}
	if cfg.DefaultLimit == 0 {
		return nil, fmt.Errorf("DEFAULT_LIMIT must be at least 1")
	}
	if cfg.DuckDBPath == "" {
		cfg.Warnings = append(cfg.Warnings, "DUCKDB_PATH not set, queries run against an empty in-memory database")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.StrictInternalErrors {
			cfg.Warnings = append(cfg.Warnings, "STRICT_INTERNAL_ERRORS is enabled in production, internal errors will crash requests")
		}
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func parseUintEnv(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines are KEY=VALUE; comments (#) and blank lines are skipped.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// unquote removes one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
