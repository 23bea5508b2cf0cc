package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeyLen длина производного ключа в байтах
const KeyLen = 32

// Контексты деривации. Разные контексты дают независимые ключи
// из одного SECRET_KEY.
const (
	purposeFlash = "traderouter/flash"
	purposeState = "traderouter/oauth-state"
)

// Keys содержит производные ключи подписи
type Keys struct {
	FlashKey []byte // ключ подписи flash cookie (32 bytes)
	StateKey []byte // ключ подписи OAuth state (32 bytes)
}

// DeriveKey генерирует ключ для указанного назначения из секрета (HKDF-SHA256)
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret cannot be empty")
	}
	if purpose == "" {
		return nil, fmt.Errorf("purpose cannot be empty")
	}

	key := make([]byte, KeyLen)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// DeriveKeys генерирует все ключи сервиса из SECRET_KEY
func DeriveKeys(secret string) (*Keys, error) {
	flashKey, err := DeriveKey(secret, purposeFlash)
	if err != nil {
		return nil, err
	}
	stateKey, err := DeriveKey(secret, purposeState)
	if err != nil {
		return nil, err
	}
	return &Keys{
		FlashKey: flashKey,
		StateKey: stateKey,
	}, nil
}
