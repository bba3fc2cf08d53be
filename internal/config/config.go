// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package config loads and validates Driftdeck configuration from layered
// sources: struct defaults, an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Driftdeck server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Recommend RecommendConfig `koanf:"recommend"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/driftdeck.duckdb)
//   - DUCKDB_MAX_MEMORY: Memory limit passed to DuckDB (default: 1GB)
//   - SEED_CATALOG: Seed the destination catalog on startup when empty
type DatabaseConfig struct {
	Path        string `koanf:"path"`
	MaxMemory   string `koanf:"max_memory"`
	Threads     int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	SeedCatalog bool   `koanf:"seed_catalog"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	AuthMode        string        `koanf:"auth_mode"` // "jwt" or "none"
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// RecommendConfig tunes the recommendation engine and its cache.
type RecommendConfig struct {
	MaxResults        int           `koanf:"max_results"`         // ranked list cap
	MaxConsecutive    int           `koanf:"max_consecutive"`     // same-category run limit
	CacheMaxSize      int           `koanf:"cache_max_size"`      // entry cap before LRU eviction
	CacheTTL          time.Duration `koanf:"cache_ttl"`           // entry lifetime from insertion
	CacheSweepPercent int           `koanf:"cache_sweep_percent"` // chance an insert triggers an expiry sweep
}

// IngestConfig tunes the swipe ingestion pipeline.
type IngestConfig struct {
	BatchSize          int           `koanf:"batch_size"`    // queue length that triggers a flush
	FlushTimeout       time.Duration `koanf:"flush_timeout"` // max time an event waits in the queue
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	switch c.Security.AuthMode {
	case "jwt", "none":
	default:
		return fmt.Errorf("security.auth_mode must be \"jwt\" or \"none\", got %q", c.Security.AuthMode)
	}
	if c.Security.AuthMode == "jwt" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode is jwt")
	}
	if c.Security.RateLimitReqs < 0 {
		return fmt.Errorf("security.rate_limit_reqs must not be negative, got %d", c.Security.RateLimitReqs)
	}

	if c.Recommend.MaxResults < 1 {
		return fmt.Errorf("recommend.max_results must be at least 1, got %d", c.Recommend.MaxResults)
	}
	if c.Recommend.MaxConsecutive < 1 {
		return fmt.Errorf("recommend.max_consecutive must be at least 1, got %d", c.Recommend.MaxConsecutive)
	}
	if c.Recommend.CacheMaxSize < 1 {
		return fmt.Errorf("recommend.cache_max_size must be at least 1, got %d", c.Recommend.CacheMaxSize)
	}
	if c.Recommend.CacheTTL <= 0 {
		return fmt.Errorf("recommend.cache_ttl must be positive, got %s", c.Recommend.CacheTTL)
	}
	if c.Recommend.CacheSweepPercent < 0 || c.Recommend.CacheSweepPercent > 100 {
		return fmt.Errorf("recommend.cache_sweep_percent must be between 0 and 100, got %d", c.Recommend.CacheSweepPercent)
	}

	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be at least 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.FlushTimeout <= 0 {
		return fmt.Errorf("ingest.flush_timeout must be positive, got %s", c.Ingest.FlushTimeout)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be \"json\" or \"console\", got %q", c.Logging.Format)
	}

	return nil
}
