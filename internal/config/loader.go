package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	envPrefix  = "BAUTAGEBUCH_"
	envConfig  = envPrefix + "CONFIG"
	maxWorkers = 1_024
)

// Load builds a Config by layering defaults, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. YAML file at path, or at BAUTAGEBUCH_CONFIG when path is empty
//  3. env (prefix BAUTAGEBUCH_)
func Load(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BAUTAGEBUCH_DB_PATH -> db_path. Keys are flat so underscores survive.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	case c.Store == StoreSQLite && c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1:
		return fmt.Errorf("%w: duplicate_threshold must be in (0,1], got %v", ErrInvalidConfig, c.DuplicateThreshold)
	case c.CheckWindowDays < 0:
		return fmt.Errorf("%w: check_window_days must not be negative", ErrInvalidConfig)
	case c.CheckLimit <= 0:
		return fmt.Errorf("%w: check_limit must be positive", ErrInvalidConfig)
	case c.ImportWorkers <= 0 || c.ImportWorkers > maxWorkers:
		return fmt.Errorf("%w: import_workers must be in 1..%d", ErrInvalidConfig, maxWorkers)
	case c.ImportQueueSize <= 0:
		return fmt.Errorf("%w: import_queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MetricsAddr == "":
		return fmt.Errorf("%w: metrics_addr must not be empty", ErrInvalidConfig)
	case c.ScanIntervalSec <= 0:
		return fmt.Errorf("%w: scan_interval_sec must be positive", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name", ErrInvalidConfig, c.MetricsNamespace)
	case c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("%w: metrics_subsystem %q is not a valid metric name", ErrInvalidConfig, c.MetricsSubsystem)
	case !ascending(c.MetricsBuckets):
		return fmt.Errorf("%w: metrics_buckets must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

func ascending(buckets []float64) bool {
	for i := 1; i < len(buckets); i++ {
		if !(buckets[i] > buckets[i-1]) {
			return false
		}
	}
	return true
}
