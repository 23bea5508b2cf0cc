package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// SystemNamePattern определяет допустимый формат имени солнечной системы
// Латинские буквы, цифры, пробел и дефис (например "New Caldari", "1DQ1-A")
var SystemNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 \-]*$`)

// RefreshTokenPattern допустимые символы refresh token (base64 и base64url)
var RefreshTokenPattern = regexp.MustCompile(`^[a-zA-Z0-9._~+/=\-]+$`)

const (
	// MaxSystemNameLen максимальная длина имени системы
	MaxSystemNameLen = 64
	// MaxRefreshTokenLen максимальная длина refresh token
	MaxRefreshTokenLen = 512
)

// Действия update endpoint
const (
	ActionLocation  = "location"
	ActionDistances = "distances"
)

// ValidateSystemName проверяет имя солнечной системы для поиска
func ValidateSystemName(name string) error {
	if name == "" {
		return fmt.Errorf("system name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxSystemNameLen {
		return fmt.Errorf("system name must not exceed %d characters", MaxSystemNameLen)
	}

	if !SystemNamePattern.MatchString(name) {
		return fmt.Errorf("system name can only contain letters, numbers, spaces and hyphens")
	}

	return nil
}

// ValidateRefreshToken проверяет формат refresh token из URL
func ValidateRefreshToken(token string) error {
	if token == "" {
		return fmt.Errorf("refresh token cannot be empty")
	}

	if len(token) > MaxRefreshTokenLen {
		return fmt.Errorf("refresh token must not exceed %d characters", MaxRefreshTokenLen)
	}

	if !RefreshTokenPattern.MatchString(token) {
		return fmt.Errorf("refresh token contains invalid characters")
	}

	return nil
}

// ValidateAction проверяет действие update endpoint
func ValidateAction(action string) error {
	switch action {
	case ActionLocation, ActionDistances:
		return nil
	default:
		return fmt.Errorf("unknown action %q: expected %s or %s", action, ActionLocation, ActionDistances)
	}
}
