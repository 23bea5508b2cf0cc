package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/traderouter/internal/server/storage"
	"github.com/iudanet/traderouter/pkg/api"
)

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	pilots  storage.PilotStorage
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, pilots storage.PilotStorage, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		pilots:  pilots,
		version: version,
	}
}

// Health обрабатывает GET {prefix}/health
// Health check endpoint для мониторинга. Внешние сервисы EVE не опрашиваются.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	if err := h.pilots.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "pilot storage is unavailable", slog.Any("error", err))
		resp.Status = "degraded"
		sendJSON(h.logger, w, resp, http.StatusServiceUnavailable)
		return
	}

	count, err := h.pilots.CountPilots(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to count pilots", slog.Any("error", err))
	}
	resp.Pilots = count

	sendJSON(h.logger, w, resp, http.StatusOK)
}
