// Package api exposes the ops endpoints of the monitor: health, metrics,
// service stats and the last duplicate scan.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/bautagebuch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the ops routes.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	duplicatesHandler *DuplicatesHandler
	metricsHandler    http.Handler
}

// NewServer creates a new ops server with all handlers.
func NewServer(pinger Pinger, stats StatsProvider, reports ReportSource) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(pinger),
		statsHandler:      NewStatsHandler(stats),
		duplicatesHandler: NewDuplicatesHandler(reports),
		metricsHandler:    promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/duplicates", MetricsMiddleware(s.duplicatesHandler.HandleDuplicates, "duplicates"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
