// Package server собирает HTTP маршруты сервиса и управляет жизненным
// циклом http.Server.
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/traderouter/internal/server/handlers"
	"github.com/iudanet/traderouter/internal/server/middleware"
)

// Handlers обработчики, которые монтирует NewRouter
type Handlers struct {
	Router *handlers.RouterHandler
	API    *handlers.APIHandler
	Health *handlers.HealthHandler
}

// NewRouter строит ServeMux под префиксом prefix ("" для корня).
// Страницы с refresh token в пути проходят через RequireSession,
// поиск ограничен limiter.
func NewRouter(
	logger *slog.Logger,
	prefix string,
	h Handlers,
	resolver middleware.SessionResolver,
	limiter *middleware.RateLimiter,
) http.Handler {
	mux := http.NewServeMux()

	pageSession := middleware.RequireSession(logger, resolver, h.Router.SessionFailed)
	apiSession := middleware.RequireSession(logger, resolver, h.API.SessionFailed)

	// landing
	mux.HandleFunc("GET "+prefix+"/{$}", h.Router.Landing)
	if prefix != "" {
		mux.HandleFunc("GET "+prefix, h.Router.Landing)
	}

	// OAuth callback и dashboard
	mux.HandleFunc("GET "+prefix+"/router", h.Router.Callback)
	dashboard := pageSession(http.HandlerFunc(h.Router.Dashboard))
	mux.Handle("GET "+prefix+"/router/{refresh_token}", dashboard)
	mux.Handle("GET "+prefix+"/router/{refresh_token}/{$}", dashboard)

	// JSON API
	mux.Handle("GET "+prefix+"/search/{system_name}", limiter.Middleware(http.HandlerFunc(h.API.Search)))
	mux.Handle("GET "+prefix+"/update/{action}/{refresh_token}",
		h.API.CheckAction(apiSession(http.HandlerFunc(h.API.Update))))

	mux.HandleFunc("GET "+prefix+"/health", h.Health.Health)

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, prefix, []string{prefix + "/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger, prefix, prefix+"/search/", prefix+"/update/", prefix+"/health")(handler)

	return handler
}
