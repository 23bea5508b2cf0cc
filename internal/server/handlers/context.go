package handlers

import (
	"context"

	"github.com/iudanet/traderouter/internal/models"
)

type contextKey string

// SessionKey ключ для хранения сессии пилота в контексте
const SessionKey contextKey = "session"

// WithSession возвращает контекст с сессией пилота
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetSession извлекает сессию пилота из контекста запроса
func GetSession(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*models.Session)
	return s, ok && s != nil
}
