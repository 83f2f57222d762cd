// Package config provides centralized configuration management for the site
// scoring service. It handles loading configuration from environment
// variables, validation, and sensible defaults. Of the scoring-related
// settings it holds only the catalog TTL and the grid cell size; the
// per-layer radii, half-distances, persona weights, TNUoS zones and status
// tables are package-level values in the proximity, scoring, persona and
// tnuos packages and are not read from here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the scoring service.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Catalog CatalogConfig
	App     AppConfig
	Security SecurityConfig

	mu sync.RWMutex
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// StoreConfig contains the external feature/site store configuration. The
// store itself is an out-of-scope collaborator (see catalog.Store); only its
// connection parameters live here.
type StoreConfig struct {
	URL    string // e.g. SUPABASE_URL or equivalent
	APIKey string // e.g. SUPABASE_ANON_KEY or equivalent
}

// CatalogConfig contains the spatial catalog's refresh and grid tuning.
type CatalogConfig struct {
	TTL             time.Duration // INFRA_CACHE_TTL
	GridCellDegrees float64       // 0.5 per spec
}

// AppConfig contains general application configuration.
type AppConfig struct {
	LogLevel        string
	AlgorithmVersion string
}

// SecurityConfig contains CORS configuration for the thin transport layer.
type SecurityConfig struct {
	AllowedOrigins []string
}

// Load creates a new Config instance from environment variables. It ignores
// a missing .env file, consistent with local/dev ergonomics.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnvString("HOST", "localhost"),
			Port: getEnvInt("PORT", 8080),
			Env:  getEnvString("ENVIRONMENT", "development"),
		},
		Store: StoreConfig{
			URL:    getEnvString("SUPABASE_URL", ""),
			APIKey: getEnvString("SUPABASE_ANON_KEY", ""),
		},
		Catalog: CatalogConfig{
			TTL:             time.Duration(getEnvInt("INFRA_CACHE_TTL", 600)) * time.Second,
			GridCellDegrees: getEnvFloat("GRID_CELL_DEGREES", 0.5),
		},
		App: AppConfig{
			LogLevel:         getEnvString("LOG_LEVEL", "info"),
			AlgorithmVersion: getEnvString("ALGORITHM_VERSION", "2.0.0"),
		},
		Security: SecurityConfig{
			AllowedOrigins: parseStringSlice(getEnvString("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are present and sane.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}
	if c.Server.Env == "" {
		errs = append(errs, "ENVIRONMENT must be set")
	}
	if c.Server.Env == "production" && (c.Store.URL == "" || c.Store.APIKey == "") {
		errs = append(errs, "SUPABASE_URL and SUPABASE_ANON_KEY are required in production")
	}
	if c.Catalog.TTL <= 0 {
		errs = append(errs, "INFRA_CACHE_TTL must be positive")
	}
	if c.Catalog.GridCellDegrees <= 0 {
		errs = append(errs, "GRID_CELL_DEGREES must be positive")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, "log level must be one of: debug, info, warn, error")
	}
	if len(c.Security.AllowedOrigins) == 0 {
		errs = append(errs, "at least one allowed origin must be specified")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// String returns a representation safe for logging, with the store API key masked.
func (c *Config) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	apiKey := c.Store.APIKey
	if apiKey != "" {
		if len(apiKey) <= 8 {
			apiKey = "***"
		} else {
			apiKey = apiKey[:4] + "***" + apiKey[len(apiKey)-4:]
		}
	}

	return fmt.Sprintf(`Config{
  Server: {Host: %s, Port: %d, Env: %s}
  Store: {URL: %s, APIKey: %s}
  Catalog: {TTL: %s, GridCellDegrees: %.2f}
  App: {LogLevel: %s, AlgorithmVersion: %s}
  Security: {AllowedOrigins: %v}
}`,
		c.Server.Host, c.Server.Port, c.Server.Env,
		c.Store.URL, apiKey,
		c.Catalog.TTL, c.Catalog.GridCellDegrees,
		c.App.LogLevel, c.App.AlgorithmVersion,
		c.Security.AllowedOrigins,
	)
}

// IsProduction reports whether the service is configured for production.
func (c *Config) IsProduction() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server.Env == "production"
}

// GetServerAddress returns the full server address (host:port).
func (c *Config) GetServerAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions for environment variable parsing.

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
