// Package config loads run defaults from the environment, optionally seeded
// from a .env file.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds environment-provided defaults. Flags override all of these.
type Config struct {
	// DatabaseURL enables the optional Postgres export sink when set.
	DatabaseURL string

	// MetricsPort serves Prometheus metrics on a side port when set.
	MetricsPort string

	// UserAgent, Referer, and Cookie carry the browser-like request
	// identity captured from the network inspector.
	UserAgent string
	Referer   string
	Cookie    string

	// LogLevel is the default log level.
	LogLevel string
}

// Load reads the environment, first merging a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		UserAgent:   os.Getenv("CATALOG_USER_AGENT"),
		Referer: getEnv("CATALOG_REFERER",
			"https://www.gsshop.com/shop/wine/cate.gs?msectid=1548240"),
		Cookie:   os.Getenv("CATALOG_COOKIE"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
