package api

import (
	"net/http"

	service "github.com/okian/bautagebuch/internal/app"
)

// ReportSource returns the most recent duplicate scan. ok is false until the
// first scan finished.
type ReportSource interface {
	LastReport() (report service.Report, ok bool)
}

// DuplicatesHandler serves the last duplicate scan of the monitor.
type DuplicatesHandler struct {
	source ReportSource
}

// NewDuplicatesHandler creates a new duplicates handler.
func NewDuplicatesHandler(source ReportSource) *DuplicatesHandler {
	return &DuplicatesHandler{source: source}
}

// HandleDuplicates handles GET /duplicates requests.
func (h *DuplicatesHandler) HandleDuplicates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	report, ok := h.source.LastReport()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "pending", Error: "no scan finished yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
