package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/config"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// cli carries state shared by all subcommands.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "bautagebuch",
		Short:         "Construction logbook with duplicate detection",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML config file (default $BAUTAGEBUCH_CONFIG)")

	root.AddCommand(
		c.recordCmd(),
		c.importCmd(),
		c.listCmd(),
		c.duplicatesCmd(),
		c.checkCmd(),
		c.deleteCmd(),
		c.confirmCmd(),
		c.weeksCmd(),
		c.weekCmd(),
		c.seedCmd(),
		c.monitorCmd(),
		c.cableCmd(),
		c.materialCmd(),
	)
	return root
}

func (c *cli) loadConfig(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
	)
	c.cfg = cfg
	return nil
}

// openService opens the configured store and wraps it in a service. The
// caller closes the service.
func (c *cli) openService(ctx context.Context) (*service.Service, error) {
	log := logger.Get()
	var store repository.Store
	switch c.cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemoryStore(repository.WithLogger(log.Named("repository")))
	default:
		s, err := repository.NewSQLiteStore(ctx, c.cfg.DBPath, repository.WithLogger(log.Named("repository")))
		if err != nil {
			return nil, err
		}
		store = s
	}
	return service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithThreshold(c.cfg.DuplicateThreshold),
		service.WithCheckWindow(c.cfg.CheckWindowDays),
		service.WithCheckLimit(c.cfg.CheckLimit),
		service.WithImportWorkers(c.cfg.ImportWorkers),
		service.WithImportQueueSize(c.cfg.ImportQueueSize),
		service.WithDedupeSize(c.cfg.DedupeSize),
	), nil
}

// withService runs fn against a freshly opened service.
func (c *cli) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	svc, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Get().Warn(ctx, "closing store failed", logger.Error(err))
		}
	}()
	return fn(ctx, svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dateLayouts are accepted for date flags and import rows.
var dateLayouts = []string{"2006-01-02", "02.01.2006", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or DD.MM.YYYY", s)
}

func formatDay(t time.Time) string {
	return t.Format("02.01.2006")
}
