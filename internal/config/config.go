package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Photos    PhotosConfig    `yaml:"photos"`
	Search    SearchConfig    `yaml:"search"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// PhotosConfig contains photo storage and download settings
type PhotosConfig struct {
	StoragePath            string `yaml:"storage_path"`
	MaxPhotoSizeMB         int    `yaml:"max_photo_size_mb"`
	MaxPhotosPerEntity     int    `yaml:"max_photos_per_entity"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`
	// UpsertWaitSeconds bounds how long an upsert waits for photo downloads
	// before deferring the remainder to the background queue.
	UpsertWaitSeconds int `yaml:"upsert_wait_seconds"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
}

// ReconcileConfig contains artifact reconciliation schedule settings
type ReconcileConfig struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

// RateLimitConfig contains rate limiting for outbound photo fetches
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type: "postgres",
		},
		Server: ServerConfig{
			Port:        8084,
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Photos: PhotosConfig{
			StoragePath:            "./data/photos",
			MaxPhotoSizeMB:         10,
			MaxPhotosPerEntity:     20,
			DownloadTimeoutSeconds: 30,
			UpsertWaitSeconds:      60,
		},
		Reconcile: ReconcileConfig{
			DailyRunEnabled: false,
			DailyRunTime:    "03:00",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   1800,
		},
		Timezone: "America/Vancouver",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// MaxPhotoSizeBytes returns the photo size cap in bytes
func (c *PhotosConfig) MaxPhotoSizeBytes() int64 {
	return int64(c.MaxPhotoSizeMB) * 1024 * 1024
}

// DownloadTimeout returns the per-photo download timeout as a duration
func (c *PhotosConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

// UpsertWait returns the bounded wait for photos during an upsert
func (c *PhotosConfig) UpsertWait() time.Duration {
	return time.Duration(c.UpsertWaitSeconds) * time.Second
}
