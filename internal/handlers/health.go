package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/curelink/records-portal/internal/models"
	"go.uber.org/zap"
)

const version = "1.0.0"

var startTime = time.Now()

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db       Pinger // nil when no ledger database is configured
	sessions Pinger
	logger   *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, sessions Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  version,
		Uptime:   time.Since(startTime).String(),
		Database: "disabled",
		Sessions: "connected",
	}
	code := http.StatusOK

	if h.db != nil {
		status.Database = "connected"
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Warnw("Database ping failed", "error", err)
			status.Database = "disconnected"
			status.Status = "not ready"
			code = http.StatusServiceUnavailable
		}
	}
	if err := h.sessions.Ping(r.Context()); err != nil {
		h.logger.Warnw("Session store ping failed", "error", err)
		status.Sessions = "disconnected"
		status.Status = "not ready"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
}
