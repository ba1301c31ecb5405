// Package health provides the health endpoint for the pharmacy API.
package health

import (
	"context"
	"database/sql"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/hmpharma/pharmacy-api/handlers"
	"github.com/hmpharma/pharmacy-api/logging"
)

// Counter reports record counts per resource; the store registry satisfies it.
type Counter interface {
	Counts(ctx context.Context) (map[string]int64, error)
}

// ScanReporter reports when the batch expiry scan last completed; the
// scheduler satisfies it.
type ScanReporter interface {
	LastScan() time.Time
}

// Checker serves /health: database reachability, per-resource counts, uptime
// and expiry-scan freshness.
type Checker struct {
	db        *sql.DB
	counter   Counter
	scans     ScanReporter
	startTime time.Time
}

// NewChecker creates a health checker with injected dependencies.
func NewChecker(db *sql.DB, counter Counter, scans ScanReporter) *Checker {
	return &Checker{db: db, counter: counter, scans: scans, startTime: time.Now()}
}

// Handler returns the /health handler.
func (h *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := h.check(r.Context())

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := map[string]any{
			"status":         status,
			"uptime_seconds": math.Round(time.Since(h.startTime).Seconds()),
			"data":           data,
			"system": map[string]any{
				"goroutines": runtime.NumGoroutine(),
				"alloc_mb":   int(m.Alloc / 1024 / 1024),
			},
		}

		handlers.RespondWithJSON(w, httpStatus, response)
	}
}

func (h *Checker) check(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	data = map[string]any{}

	if err := h.db.PingContext(ctx); err != nil {
		logging.Error("Health check database ping failed", "error", err)
		data["database"] = "unreachable"
		return "unhealthy", data, http.StatusServiceUnavailable
	}
	data["database"] = "ok"

	counts, err := h.counter.Counts(ctx)
	if err != nil {
		logging.Error("Health check counts failed", "error", err)
		data["records"] = "unavailable"
		return "degraded", data, http.StatusOK
	}
	data["records"] = counts

	if h.scans != nil {
		lastScan := h.scans.LastScan()
		data["last_expiry_scan"] = lastScan.Format(time.RFC3339)
		if !lastScan.IsZero() && time.Since(lastScan) > 48*time.Hour {
			return "degraded", data, http.StatusOK
		}
	}

	return "healthy", data, http.StatusOK
}
