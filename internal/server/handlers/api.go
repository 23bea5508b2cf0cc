package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/traderouter/internal/server/storage"
	"github.com/iudanet/traderouter/internal/upstream"
	"github.com/iudanet/traderouter/internal/validation"
	"github.com/iudanet/traderouter/pkg/api"
)

// RefreshTokenHeader заголовок с новым refresh token, если EVE SSO его ротировал
const RefreshTokenHeader = "X-Refresh-Token"

// SystemSearcher ищет солнечную систему по имени
type SystemSearcher interface {
	SearchSystem(ctx context.Context, name string) (int32, error)
}

// APIHandler обрабатывает JSON endpoints: search и update
type APIHandler struct {
	logger    *slog.Logger
	systems   SystemSearcher
	names     SystemNamer
	distances DistanceCalculator
	pilots    storage.PilotStorage
}

// NewAPIHandler создает новый handler JSON API
func NewAPIHandler(
	logger *slog.Logger,
	systems SystemSearcher,
	names SystemNamer,
	distances DistanceCalculator,
	pilots storage.PilotStorage,
) *APIHandler {
	return &APIHandler{
		logger:    logger,
		systems:   systems,
		names:     names,
		distances: distances,
		pilots:    pilots,
	}
}

// Search обрабатывает GET {prefix}/search/{system_name}
// Расстояния от указанной системы до хабов, аутентификация не нужна
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := r.PathValue("system_name")
	if err := validation.ValidateSystemName(name); err != nil {
		h.logger.WarnContext(ctx, "invalid system name", slog.String("system_name", name), slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	systemID, err := h.systems.SearchSystem(ctx, name)
	if err != nil {
		h.upstreamFailed(ctx, w, "search failed", err)
		return
	}

	distances, err := h.distances.Distances(ctx, systemID)
	if err != nil {
		h.upstreamFailed(ctx, w, "search distances failed", err)
		return
	}

	h.logger.InfoContext(ctx, "search served",
		slog.String("system_name", name),
		slog.Int("system_id", int(systemID)))

	sendJSON(h.logger, w, distances, http.StatusOK)
}

// CheckAction отклоняет неизвестные action до разрешения сессии,
// поэтому неверный запрос не обращается к внешним сервисам
func (h *APIHandler) CheckAction(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateAction(r.PathValue("action")); err != nil {
			h.logger.WarnContext(r.Context(), "unknown update action", slog.String("action", r.PathValue("action")))
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Update обрабатывает GET {prefix}/update/{action}/{refresh_token}
// action=location: только текущая система; action=distances: хабы и "current"
func (h *APIHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	action := r.PathValue("action")
	if err := validation.ValidateAction(action); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	s, ok := GetSession(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "update without session in context")
		sendError(h.logger, w, "session is required", http.StatusUnauthorized)
		return
	}

	if s.RefreshToken != r.PathValue("refresh_token") {
		w.Header().Set(RefreshTokenHeader, s.RefreshToken)
	}

	systemID := s.Location.SolarSystemID
	systemName, err := h.names.SystemName(ctx, systemID)
	if err != nil {
		h.upstreamFailed(ctx, w, "update name lookup failed", err)
		return
	}

	current := api.CurrentSystem{Name: systemName, SystemID: systemID}

	switch action {
	case validation.ActionLocation:
		h.touch(ctx, s.PilotID, systemID)
		sendJSON(h.logger, w, current, http.StatusOK)

	case validation.ActionDistances:
		distances, err := h.distances.Distances(ctx, systemID)
		if err != nil {
			h.upstreamFailed(ctx, w, "update distances failed", err)
			return
		}

		h.touch(ctx, s.PilotID, systemID)
		resp := distances.Ordered()
		resp.Set("current", current)
		sendJSON(h.logger, w, resp, http.StatusOK)
	}
}

// SessionFailed ответ update, если сессию разрешить не удалось
func (h *APIHandler) SessionFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.upstreamFailed(r.Context(), w, "update session failed", err)
}

func (h *APIHandler) upstreamFailed(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	kind := upstream.Classify(err)
	level := slog.LevelError
	if kind == upstream.KindNotFound || kind == upstream.KindExchange {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg, slog.String("kind", kind.String()), slog.Any("error", err))
	sendUpstreamError(h.logger, w, err)
}

// touch обновляет журнал входов; пилот без записи (не открывал dashboard) пропускается
func (h *APIHandler) touch(ctx context.Context, pilotID int64, systemID int32) {
	err := h.pilots.TouchPilot(ctx, pilotID, systemID, time.Now().UTC())
	if err != nil && !errors.Is(err, storage.ErrPilotNotFound) {
		h.logger.WarnContext(ctx, "failed to touch pilot", slog.Int64("pilot_id", pilotID), slog.Any("error", err))
	}
}
