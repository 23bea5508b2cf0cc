// Package session восстанавливает аутентифицированный контекст пилота из
// refresh token. Ничего не хранит: каждый запрос разрешается заново.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/sso"
	"github.com/iudanet/traderouter/internal/upstream"
)

// Authenticator внешний клиент EVE SSO
type Authenticator interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Verify(ctx context.Context, accessToken string) (sso.Identity, error)
}

// Locator возвращает местоположение пилота
type Locator interface {
	Location(ctx context.Context, accessToken string, pilotID int64) (models.Location, error)
}

// Resolver разрешает refresh token в сессию
type Resolver struct {
	auth    Authenticator
	locator Locator
	logger  *slog.Logger
}

// NewResolver создает новый Resolver
func NewResolver(auth Authenticator, locator Locator, logger *slog.Logger) *Resolver {
	return &Resolver{
		auth:    auth,
		locator: locator,
		logger:  logger,
	}
}

// Exchange обменивает authorization code на refresh token
func (r *Resolver) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := r.auth.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return tok.RefreshToken, nil
}

// Resolve получает свежий access token, затем личность пилота и по его ID
// текущее местоположение. Любая ошибка фатальна.
func (r *Resolver) Resolve(ctx context.Context, refreshToken string) (*models.Session, error) {
	tok, err := r.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: %w: refresh returned no access token", upstream.ErrExchange, upstream.ErrMalformed)
	}

	id, err := r.auth.Verify(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	loc, err := r.locator.Location(ctx, tok.AccessToken, id.CharacterID)
	if err != nil {
		return nil, err
	}

	rotated := tok.RefreshToken
	if rotated == "" {
		rotated = refreshToken
	}
	if rotated != refreshToken {
		r.logger.DebugContext(ctx, "refresh token rotated", slog.Int64("pilot_id", id.CharacterID))
	}

	return &models.Session{
		PilotID:      id.CharacterID,
		PilotName:    id.CharacterName,
		AccessToken:  tok.AccessToken,
		RefreshToken: rotated,
		Location:     loc,
	}, nil
}
