package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/traderouter/internal/hubs"
	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/server/storage"
	"github.com/iudanet/traderouter/internal/upstream"
)

// LoginFlow строит ссылку на страницу входа EVE SSO
type LoginFlow interface {
	AuthorizeURL(state string) string
}

// CodeExchanger обменивает authorization code на refresh token
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// SystemNamer разрешает ID солнечной системы в имя
type SystemNamer interface {
	SystemName(ctx context.Context, systemID int32) (string, error)
}

// DistanceCalculator считает прыжки до торговых хабов
type DistanceCalculator interface {
	Distances(ctx context.Context, origin int32) (hubs.Distances, error)
}

// Site общие параметры страниц
type Site struct {
	Name   string
	Prefix string // префикс монтирования без завершающего "/"
}

// RouterHandler обрабатывает HTML страницы: landing, OAuth callback и dashboard
type RouterHandler struct {
	logger    *slog.Logger
	login     LoginFlow
	exchanger CodeExchanger
	names     SystemNamer
	distances DistanceCalculator
	pilots    storage.PilotStorage
	flasher   *Flasher
	states    *StateSigner
	site      Site
}

// NewRouterHandler создает новый handler HTML страниц
func NewRouterHandler(
	logger *slog.Logger,
	site Site,
	login LoginFlow,
	exchanger CodeExchanger,
	names SystemNamer,
	distances DistanceCalculator,
	pilots storage.PilotStorage,
	flasher *Flasher,
	states *StateSigner,
) *RouterHandler {
	return &RouterHandler{
		logger:    logger,
		site:      site,
		login:     login,
		exchanger: exchanger,
		names:     names,
		distances: distances,
		pilots:    pilots,
		flasher:   flasher,
		states:    states,
	}
}

// Landing обрабатывает GET {prefix} и GET {prefix}/
// Страница со ссылкой входа через EVE SSO
func (h *RouterHandler) Landing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.states.Issue()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue oauth state", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(h.logger, w, pageData{
		SiteName:     h.site.Name,
		Prefix:       h.site.Prefix,
		Flashes:      h.flasher.Pop(w, r),
		ShowLogin:    true,
		AuthorizeURL: h.login.AuthorizeURL(state),
	})
}

// Callback обрабатывает GET {prefix}/router
// Возврат из EVE SSO: обмен кода на refresh token и переход в dashboard.
// Это единственный переход из неаутентифицированного состояния.
func (h *RouterHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	// EVE SSO сообщил об ошибке (например, пилот отказался от входа)
	if ssoErr := q.Get("error"); ssoErr != "" {
		h.logger.WarnContext(ctx, "sso returned error",
			slog.String("error", ssoErr),
			slog.String("description", q.Get("error_description")))
		h.flash(w, r, "error", "There was an error in EVE's response")
		http.Redirect(w, r, h.site.Prefix+"/router", http.StatusFound)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.WarnContext(ctx, "sso callback without code")
		h.signInFailed(w, r)
		return
	}

	if err := h.states.Verify(q.Get("state")); err != nil {
		h.logger.WarnContext(ctx, "sso callback with invalid state", slog.Any("error", err))
		h.signInFailed(w, r)
		return
	}

	refreshToken, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "sso callback exchange failed",
			slog.String("kind", upstream.Classify(err).String()),
			slog.Any("error", err))
		h.signInFailed(w, r)
		return
	}

	h.logger.InfoContext(ctx, "pilot signed in")
	http.Redirect(w, r, h.dashboardURL(refreshToken), http.StatusFound)
}

// Dashboard обрабатывает GET {prefix}/router/{refresh_token}
// Сессия уже разрешена middleware.RequireSession.
func (h *RouterHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, ok := GetSession(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "dashboard without session in context")
		h.SessionFailed(w, r, upstream.ErrExchange)
		return
	}

	systemID := s.Location.SolarSystemID

	systemName, err := h.names.SystemName(ctx, systemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	distances, err := h.distances.Distances(ctx, systemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.recordSignIn(ctx, s)

	render(h.logger, w, pageData{
		SiteName:      h.site.Name,
		Prefix:        h.site.Prefix,
		Flashes:       h.flasher.Pop(w, r),
		PilotName:     s.PilotName,
		PilotID:       s.PilotID,
		CurrentSystem: systemName,
		CurrentID:     systemID,
		Distances:     distances,
		RefreshToken:  s.RefreshToken,
	})
}

// SessionFailed ответ dashboard, если сессию разрешить не удалось
func (h *RouterHandler) SessionFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.fail(w, r, err)
}

// fail flash с категорией ошибки и редирект на landing; детали только в лог
func (h *RouterHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := upstream.Classify(err)
	h.logger.ErrorContext(r.Context(), "dashboard failed",
		slog.String("kind", kind.String()),
		slog.Any("error", err))
	h.flash(w, r, "error", "There was an error: "+kind.Message())
	http.Redirect(w, r, h.site.Prefix+"/", http.StatusFound)
}

func (h *RouterHandler) signInFailed(w http.ResponseWriter, r *http.Request) {
	h.flash(w, r, "error", "There was an error signing you in.")
	http.Redirect(w, r, h.site.Prefix+"/", http.StatusFound)
}

func (h *RouterHandler) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	if err := h.flasher.Add(w, r, category, message); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to set flash", slog.Any("error", err))
	}
}

func (h *RouterHandler) dashboardURL(refreshToken string) string {
	return h.site.Prefix + "/router/" + url.PathEscape(refreshToken)
}

// recordSignIn пишет пилота в журнал входов. Ошибка журнала не ломает запрос.
func (h *RouterHandler) recordSignIn(ctx context.Context, s *models.Session) {
	now := time.Now().UTC()
	err := h.pilots.UpsertPilot(ctx, &models.Pilot{
		ID:           s.PilotID,
		Name:         s.PilotName,
		FirstSeen:    now,
		LastSeen:     now,
		LastSystemID: s.Location.SolarSystemID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to record pilot", slog.Int64("pilot_id", s.PilotID), slog.Any("error", err))
	}
}
