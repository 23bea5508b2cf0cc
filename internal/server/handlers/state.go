package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTTL время, за которое пилот должен пройти вход в EVE SSO
const StateTTL = 10 * time.Minute

const stateIssuer = "traderouter"

// ErrInvalidState indicates that OAuth state is missing, forged or expired
var ErrInvalidState = errors.New("invalid oauth state")

// StateSigner выпускает и проверяет OAuth state (подписанный JWT).
// Сервер не хранит выданные state.
type StateSigner struct {
	key []byte
	ttl time.Duration
}

// NewStateSigner создает StateSigner
func NewStateSigner(key []byte) *StateSigner {
	return &StateSigner{key: key, ttl: StateTTL}
}

// Issue выпускает новый state для ссылки входа
func (s *StateSigner) Issue() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return state, nil
}

// Verify проверяет state, вернувшийся от EVE SSO
func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return fmt.Errorf("%w: empty", ErrInvalidState)
	}

	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}
