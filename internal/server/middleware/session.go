package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/server/handlers"
	"github.com/iudanet/traderouter/internal/upstream"
	"github.com/iudanet/traderouter/internal/validation"
)

// SessionResolver разрешает refresh token в сессию пилота
type SessionResolver interface {
	Resolve(ctx context.Context, refreshToken string) (*models.Session, error)
}

// FailureFunc отвечает клиенту, если сессию разрешить не удалось
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// RequireSession создает middleware, которое разрешает {refresh_token} из пути
// в сессию пилота и кладет ее в контекст запроса.
// Ответ при ошибке зависит от страницы: HTML редирект или JSON.
func RequireSession(logger *slog.Logger, resolver SessionResolver, onFail FailureFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			refreshToken := r.PathValue("refresh_token")
			if err := validation.ValidateRefreshToken(refreshToken); err != nil {
				logger.WarnContext(ctx, "Invalid refresh token format", "error", err)
				onFail(w, r, fmt.Errorf("%w: %w", upstream.ErrExchange, err))
				return
			}

			s, err := resolver.Resolve(ctx, refreshToken)
			if err != nil {
				onFail(w, r, err)
				return
			}

			logger.DebugContext(ctx, "Pilot authenticated", "pilot_id", s.PilotID)

			next.ServeHTTP(w, r.WithContext(handlers.WithSession(ctx, s)))
		})
	}
}
