package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/folio/pkg/api"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	responder
	db      Pinger
	version string
	timeout time.Duration
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		db:        db,
		version:   version,
		timeout:   2 * time.Second,
	}
}

// Health обрабатывает GET /api/v1/health
// Health check endpoint для мониторинга: 200 если база доступна, иначе 503
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := api.HealthResponse{
		Status:   "ok",
		Database: "ok",
		Version:  h.version,
	}

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "health check: database unreachable", slog.Any("error", err))
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		h.sendJSON(w, resp, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}
