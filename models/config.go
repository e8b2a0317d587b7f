// Package models defines data structures for configuration and extraction.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SyncConfig holds runtime configuration for a sync run. Values come from
// CLI flags, optionally seeded from a YAML config file (flags win).
type SyncConfig struct {
	// Dir is the root directory scanned for documents.
	Dir string

	// ImageRoot is the base output directory for downloaded images.
	ImageRoot string

	// Workers caps the number of documents processed concurrently.
	// Zero means no cap: one goroutine per discovered document.
	Workers int

	// Retries is the maximum number of fetch attempts per reference.
	Retries int

	// InitialDelay is the sleep before the first retry.
	InitialDelay time.Duration

	// BackoffFactor multiplies the retry delay after each transient failure.
	BackoffFactor float64

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// RatePerSecond throttles fetch attempts across all workers.
	// Zero means no throttling.
	RatePerSecond float64

	// IncludeHTML also scans .html documents for image tags.
	IncludeHTML bool

	// Database is the path of the catalog database. Empty disables it.
	Database string
}

// DefaultSyncConfig returns the defaults applied before file and flag overrides.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Dir:           ".",
		ImageRoot:     "images",
		Retries:       3,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
		Timeout:       30 * time.Second,
	}
}

// fileConfig is the YAML schema of the config file. Durations are strings
// in time.ParseDuration format ("1s", "500ms").
type fileConfig struct {
	Dir           *string  `yaml:"dir"`
	ImageRoot     *string  `yaml:"image_root"`
	Workers       *int     `yaml:"workers"`
	Retries       *int     `yaml:"retries"`
	InitialDelay  *string  `yaml:"initial_delay"`
	BackoffFactor *float64 `yaml:"backoff_factor"`
	Timeout       *string  `yaml:"timeout"`
	RatePerSecond *float64 `yaml:"rate_per_second"`
	IncludeHTML   *bool    `yaml:"include_html"`
	Database      *string  `yaml:"database"`
}

// LoadConfig reads a YAML config file into a SyncConfig, starting from
// defaults. Only keys present in the file override the defaults.
func LoadConfig(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := DefaultSyncConfig()
	if fc.Dir != nil {
		config.Dir = *fc.Dir
	}
	if fc.ImageRoot != nil {
		config.ImageRoot = *fc.ImageRoot
	}
	if fc.Workers != nil {
		config.Workers = *fc.Workers
	}
	if fc.Retries != nil {
		config.Retries = *fc.Retries
	}
	if fc.InitialDelay != nil {
		d, err := time.ParseDuration(*fc.InitialDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid initial_delay: %w", err)
		}
		config.InitialDelay = d
	}
	if fc.BackoffFactor != nil {
		config.BackoffFactor = *fc.BackoffFactor
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		config.Timeout = d
	}
	if fc.RatePerSecond != nil {
		config.RatePerSecond = *fc.RatePerSecond
	}
	if fc.IncludeHTML != nil {
		config.IncludeHTML = *fc.IncludeHTML
	}
	if fc.Database != nil {
		config.Database = *fc.Database
	}
	return &config, nil
}
