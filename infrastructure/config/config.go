package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Environment string

	// Data paths
	EntriesPath     string
	TaxonomyPath    string
	LayoutCachePath string
	ViewStatePath   string
	TuningPath      string

	// Simulation
	WorkerEnabled bool
	PlacementSeed int64

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		EntriesPath:     getEnv("ONEIROGRAPH_ENTRIES", "entries.json"),
		TaxonomyPath:    getEnv("ONEIROGRAPH_TAXONOMY", "taxonomy.yaml"),
		LayoutCachePath: getEnv("ONEIROGRAPH_LAYOUT_CACHE", ".oneirograph/layout.json"),
		ViewStatePath:   getEnv("ONEIROGRAPH_VIEW_STATE", ".oneirograph/view.json"),
		TuningPath:      getEnv("ONEIROGRAPH_TUNING", ""),

		WorkerEnabled: getEnvBool("ONEIROGRAPH_WORKER", true),
		PlacementSeed: int64(getEnvInt("ONEIROGRAPH_SEED", 1)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.EntriesPath == "" {
		return fmt.Errorf("ONEIROGRAPH_ENTRIES is required")
	}
	if c.LayoutCachePath == "" {
		return fmt.Errorf("ONEIROGRAPH_LAYOUT_CACHE is required")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
