// Package upstream описывает категории ошибок внешних сервисов (EVE SSO и ESI).
// Клиенты оборачивают свои ошибки в эти sentinel-значения, а обработчики
// выбирают ответ через Classify.
package upstream

import (
	"errors"
	"net/http"
)

// Категории ошибок внешних сервисов
var (
	// ErrExchange indicates that OAuth code exchange or token refresh failed
	ErrExchange = errors.New("oauth exchange failed")

	// ErrLookup indicates that pilot identity or location lookup failed
	ErrLookup = errors.New("pilot lookup failed")

	// ErrRoute indicates that a route query failed
	ErrRoute = errors.New("route query failed")

	// ErrMalformed indicates that upstream answered with an unusable body
	ErrMalformed = errors.New("malformed upstream response")

	// ErrNotFound indicates that a search matched nothing
	ErrNotFound = errors.New("not found")
)

// Kind категория ошибки после классификации
type Kind int

const (
	KindUnknown Kind = iota
	KindExchange
	KindLookup
	KindRoute
	KindMalformed
	KindNotFound
)

// Classify возвращает наиболее конкретную категорию ошибки.
// ErrMalformed имеет приоритет над категорией операции.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExchange):
		return KindExchange
	case errors.Is(err, ErrLookup):
		return KindLookup
	case errors.Is(err, ErrRoute):
		return KindRoute
	default:
		return KindUnknown
	}
}

// HTTPStatus возвращает HTTP статус для JSON ответа с ошибкой
func (k Kind) HTTPStatus() int {
	switch k {
	case KindExchange:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindLookup, KindRoute, KindMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает сообщение для пользователя
func (k Kind) Message() string {
	switch k {
	case KindExchange:
		return "EVE SSO rejected the sign-in, please sign in again"
	case KindLookup:
		return "could not look up your pilot or location"
	case KindRoute:
		return "could not compute routes to the trade hubs"
	case KindMalformed:
		return "EVE returned an unexpected response"
	case KindNotFound:
		return "no such solar system"
	default:
		return "internal error"
	}
}

func (k Kind) String() string {
	switch k {
	case KindExchange:
		return "exchange"
	case KindLookup:
		return "lookup"
	case KindRoute:
		return "route"
	case KindMalformed:
		return "malformed"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
