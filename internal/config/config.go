// Package config handles the server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cubny/metro/internal/logging"
	"github.com/cubny/metro/internal/tariff"
)

// Config holds the server configuration
type Config struct {
	Port        string
	Env         string
	StationsCSV string
	LogLevel    string
	// RateLimit is the number of requests per second allowed per client, 0 disables limiting
	RateLimit int
	CacheSize int
	CacheTTL  time.Duration
	FareTiers string
	Currency  string

	parseErrs []error
}

// Load reads the configuration from environment variables with defaults.
// Numbers that do not parse keep their default and are reported by Validate.
func Load() *Config {
	c := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		StationsCSV: getEnv("STATIONS_CSV", "data/Metro_data.csv"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FareTiers:   getEnv("FARE_TIERS", tariff.Default.String()),
		Currency:    getEnv("CURRENCY_SYMBOL", "₹"),
	}
	c.RateLimit = c.intEnv("RATE_LIMIT", 100)
	c.CacheSize = c.intEnv("CACHE_SIZE", 128)
	c.CacheTTL = time.Duration(c.intEnv("CACHE_TTL_SECONDS", 300)) * time.Second

	return c
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Tariff parses the configured fare tiers
func (c *Config) Tariff() (tariff.Table, error) {
	table, err := tariff.Parse(c.FareTiers)
	if err != nil {
		return tariff.Table{}, fmt.Errorf("FARE_TIERS: %w", err)
	}
	return table, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if err := errors.Join(c.parseErrs...); err != nil {
		return err
	}
	switch {
	case c.Port == "":
		return errors.New("PORT is required")
	case c.StationsCSV == "":
		return errors.New("STATIONS_CSV is required")
	case c.RateLimit < 0:
		return errors.New("RATE_LIMIT must not be negative")
	case c.CacheSize <= 0:
		return errors.New("CACHE_SIZE must be greater than 0")
	case c.CacheTTL <= 0:
		return errors.New("CACHE_TTL_SECONDS must be greater than 0")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if _, err := c.Tariff(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) intEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s: %q is not a number", key, value))
		return defaultValue
	}
	return n
}
