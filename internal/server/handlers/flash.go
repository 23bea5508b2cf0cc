package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	flashCookieName = "traderouter_flash"
	flashTTL        = 5 * time.Minute
	// maxFlashes ограничивает размер cookie
	maxFlashes = 5
)

// Flash сообщение, показываемое один раз на следующей странице
type Flash struct {
	Category string `json:"category"` // "error" или "info"
	Message  string `json:"message"`
}

// flashClaims представляет JWT claims flash cookie
type flashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// Flasher хранит flash сообщения в подписанной cookie между редиректами
type Flasher struct {
	key    []byte
	path   string
	secure bool
}

// NewFlasher создает Flasher. path ограничивает cookie префиксом приложения
func NewFlasher(key []byte, path string, secure bool) *Flasher {
	if path == "" {
		path = "/"
	}
	return &Flasher{key: key, path: path, secure: secure}
}

// Add добавляет сообщение к уже накопленным в запросе
func (f *Flasher) Add(w http.ResponseWriter, r *http.Request, category, message string) error {
	flashes := f.read(r)
	flashes = append(flashes, Flash{Category: category, Message: message})
	if len(flashes) > maxFlashes {
		flashes = flashes[len(flashes)-maxFlashes:]
	}

	now := time.Now()
	claims := flashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "traderouter",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.key)
	if err != nil {
		return fmt.Errorf("failed to sign flash cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    token,
		Path:     f.path,
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop возвращает накопленные сообщения и удаляет cookie
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(flashCookieName); err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     f.path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return f.read(r)
}

// read разбирает cookie; поддельная или просроченная cookie игнорируется
func (f *Flasher) read(r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims := &flashClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return f.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil
	}

	return claims.Flashes
}
