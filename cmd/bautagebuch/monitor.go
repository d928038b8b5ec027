package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/bautagebuch/internal/adapters/http/api"
	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// HTTP server timeouts.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func (c *cli) monitorCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Scan for duplicates periodically and serve metrics",
		Long: `Run a duplicate scan every scan_interval_sec seconds and serve the ops
endpoints /metrics, /healthz, /stats and /duplicates until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.MetricsAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.withService(cmd, func(_ context.Context, svc *service.Service) error {
				m := newMonitor(svc, time.Duration(c.cfg.ScanIntervalSec)*time.Second)
				return m.run(ctx, addr, func(bound net.Addr) {
					fmt.Fprintf(cmd.OutOrStdout(), "serving ops endpoints on %s\n", bound)
				})
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default metrics_addr)")
	return cmd
}

// monitor runs periodic duplicate scans and keeps the latest report.
type monitor struct {
	svc      *service.Service
	interval time.Duration
	logger   logger.Logger

	mu   sync.RWMutex
	last *service.Report
}

func newMonitor(svc *service.Service, interval time.Duration) *monitor {
	return &monitor{svc: svc, interval: interval, logger: logger.Get().Named("monitor")}
}

// LastReport implements api.ReportSource.
func (m *monitor) LastReport() (service.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return service.Report{}, false
	}
	return *m.last, true
}

func (m *monitor) scan(ctx context.Context) {
	report, err := m.svc.Duplicates(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("monitor", "scan_failed")
		m.logger.Error(ctx, "duplicate scan failed", logger.Error(err))
		return
	}
	m.mu.Lock()
	m.last = &report
	m.mu.Unlock()
	if report.Summary.High > 0 {
		m.logger.Warn(ctx, "high risk duplicates pending review", logger.Int("groups", report.Summary.High))
	}
}

func (m *monitor) scanLoop(ctx context.Context) {
	m.scan(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.scan(ctx)
		}
	}
}

// run serves the ops endpoints on addr and scans until ctx is done.
// onListen receives the bound address.
func (m *monitor) run(ctx context.Context, addr string, onListen func(net.Addr)) error {
	mux := http.NewServeMux()
	api.NewServer(m.svc, m.svc, m).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if onListen != nil {
		onListen(ln.Addr())
	}

	loopCtx, cancelLoops := context.WithCancel(ctx)
	defer cancelLoops()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.scanLoop(loopCtx)
	}()
	go func() {
		defer wg.Done()
		systemMetricsLoop(loopCtx, metrics.RefreshInterval())
	}()

	serveErr := make(chan error, 1)
	go func() {
		m.logger.Info(ctx, "starting ops server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	cancelLoops()
	m.logger.Info(ctx, "shutting down ops server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		m.logger.Error(ctx, "ops server shutdown failed", logger.Error(serr))
	}
	wg.Wait()
	if err != nil {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

func systemMetricsLoop(ctx context.Context, interval time.Duration) {
	updateSystemMetrics()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
