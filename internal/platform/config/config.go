// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
loaded first through 'joho/godotenv' so development setups need no exported shell state.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Storage) via constructors.
  - Runtime Settings: Values an admin may change live belong to the settings package, not here.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers supported by the blob layer.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// # Configuration Schema

// Config holds all runtime configuration for the Shelf API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath overrides the embedded migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Blob storage
	StorageDriver    string `env:"STORAGE_DRIVER"     envDefault:"local"`
	StorageLocalRoot string `env:"STORAGE_LOCAL_ROOT" envDefault:"./data/storage"`
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL" envDefault:"/files"`

	// Object Storage (Cloudflare R2 / S3-compatible)
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// Placement areas inside the storage root
	StagingPrefix   string `env:"STAGING_PREFIX"   envDefault:"temp-publications"`
	PermanentPrefix string `env:"PERMANENT_PREFIX" envDefault:"publications"`
	ArchivePrefix   string `env:"ARCHIVE_PREFIX"   envDefault:"deleted-publications"`

	// Uploads and review
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	LockTTL        time.Duration `env:"LOCK_TTL"         envDefault:"30s"`

	// Error reporting
	SentryDSN string `env:"SENTRY_DSN"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	// Missing files are fine; the real environment always wins.
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverLocal:
		if c.StorageLocalRoot == "" {
			return errors.New("config: STORAGE_LOCAL_ROOT is required for the local driver")
		}
	case StorageDriverS3:
		if c.S3Bucket == "" {
			return errors.New("config: S3_BUCKET is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	prefixes := map[string]bool{}
	for _, prefix := range []string{c.StagingPrefix, c.PermanentPrefix, c.ArchivePrefix} {
		if prefix == "" || prefixes[prefix] {
			return errors.New("config: storage prefixes must be non-empty and distinct")
		}
		prefixes[prefix] = true
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits EXTRA_ORIGINS into individual CORS origins.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
