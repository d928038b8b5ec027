// Package config defines the toolkit configuration and its loading hooks.
package config

import (
	"context"
	"runtime"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Store selects the repository backend: memory or sqlite.
	Store string `koanf:"store"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// DuplicateThreshold is the minimum similarity for two entries to be
	// reported as duplicates.
	DuplicateThreshold float64 `koanf:"duplicate_threshold"`

	// CheckWindowDays and CheckLimit bound the live duplicate check.
	CheckWindowDays int `koanf:"check_window_days"`
	CheckLimit      int `koanf:"check_limit"`

	// ImportWorkers and ImportQueueSize size the import pipeline.
	ImportWorkers   int `koanf:"import_workers"`
	ImportQueueSize int `koanf:"import_queue_size"`

	// DedupeSize bounds the set of entry IDs remembered during an import.
	DedupeSize int `koanf:"dedupe_size"`

	// MetricsAddr is the listen address of the monitor ops endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// ScanIntervalSec is the monitor duplicate scan period.
	ScanIntervalSec int `koanf:"scan_interval_sec"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets overrides the latency histogram buckets in milliseconds.
	// Empty keeps the Prometheus defaults.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Store:              StoreSQLite,
		DBPath:             "bautagebuch.db",
		DuplicateThreshold: 0.70,
		CheckWindowDays:    1,
		CheckLimit:         5,
		ImportWorkers:      runtime.NumCPU(),
		ImportQueueSize:    1_000,
		DedupeSize:         100_000,
		MetricsAddr:        ":9090",
		ScanIntervalSec:    300,
		MetricsNamespace:   "bautagebuch",
	}
}
