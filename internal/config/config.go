// Package config загружает конфигурацию сервиса: значения по умолчанию,
// затем YAML файл, затем переменные окружения. После Load конфигурация
// не изменяется и передается компонентам явно.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/iudanet/traderouter/internal/hubs"
)

// ErrInvalidConfig indicates that configuration failed validation
var ErrInvalidConfig = errors.New("invalid config")

// Config конфигурация процесса
type Config struct {
	SecretKey       string        `yaml:"SECRET_KEY"           env:"SECRET_KEY"`
	URL             string        `yaml:"URL"                  env:"URL"`
	SiteName        string        `yaml:"SITE_NAME"            env:"SITE_NAME"`
	UserAgent       string        `yaml:"EVE_OAUTH_USER_AGENT" env:"EVE_OAUTH_USER_AGENT"`
	ClientID        string        `yaml:"EVE_OAUTH_CLIENT_ID"  env:"EVE_OAUTH_CLIENT_ID"`
	ClientSecret    string        `yaml:"EVE_OAUTH_SECRET"     env:"EVE_OAUTH_SECRET"`
	CallbackURL     string        `yaml:"EVE_OAUTH_CALLBACK"   env:"EVE_OAUTH_CALLBACK"`
	Scope           string        `yaml:"EVE_OAUTH_SCOPE"      env:"EVE_OAUTH_SCOPE"`
	ListenAddr      string        `yaml:"LISTEN_ADDR"          env:"LISTEN_ADDR"`
	MountPrefix     string        `yaml:"MOUNT_PREFIX"         env:"MOUNT_PREFIX"`
	ESIBaseURL      string        `yaml:"ESI_BASE_URL"         env:"ESI_BASE_URL"`
	SSOBaseURL      string        `yaml:"SSO_BASE_URL"         env:"SSO_BASE_URL"`
	DatabasePath    string        `yaml:"DATABASE_PATH"        env:"DATABASE_PATH"`
	LogLevel        string        `yaml:"LOG_LEVEL"            env:"LOG_LEVEL"`
	LogFile         string        `yaml:"LOG_FILE"             env:"LOG_FILE"`
	Hubs            []hubs.Hub    `yaml:"hubs"`
	HTTPTimeout     time.Duration `yaml:"HTTP_TIMEOUT"         env:"HTTP_TIMEOUT"`
	SearchRateLimit int           `yaml:"SEARCH_RATE_LIMIT"    env:"SEARCH_RATE_LIMIT"`
	TrustedProxies  []string      `yaml:"TRUSTED_PROXIES"      env:"TRUSTED_PROXIES" envSeparator:","`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		SiteName:        "TradeRouter",
		Scope:           "esi-location.read_location.v1",
		ListenAddr:      ":8080",
		MountPrefix:     "/router",
		ESIBaseURL:      "https://esi.evetech.net/latest",
		SSOBaseURL:      "https://login.eveonline.com",
		DatabasePath:    "traderouter.db",
		LogLevel:        "info",
		Hubs:            hubs.DefaultHubs(),
		HTTPTimeout:     30 * time.Second,
		SearchRateLimit: 30,
	}
}

// Load собирает конфигурацию. Пустой path означает "без файла".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SECRET_KEY", c.SecretKey},
		{"URL", c.URL},
		{"EVE_OAUTH_USER_AGENT", c.UserAgent},
		{"EVE_OAUTH_CLIENT_ID", c.ClientID},
		{"EVE_OAUTH_SECRET", c.ClientSecret},
		{"EVE_OAUTH_CALLBACK", c.CallbackURL},
		{"EVE_OAUTH_SCOPE", c.Scope},
		{"LISTEN_ADDR", c.ListenAddr},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, r.name)
		}
	}

	for name, raw := range map[string]string{"URL": c.URL, "EVE_OAUTH_CALLBACK": c.CallbackURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidConfig, name)
		}
	}

	if !strings.HasPrefix(c.MountPrefix, "/") || (len(c.MountPrefix) > 1 && strings.HasSuffix(c.MountPrefix, "/")) {
		return fmt.Errorf("%w: MOUNT_PREFIX must start with / and have no trailing /", ErrInvalidConfig)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: LOG_LEVEL must be one of debug, info, warn, error", ErrInvalidConfig)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.SearchRateLimit <= 0 {
		return fmt.Errorf("%w: SEARCH_RATE_LIMIT must be positive", ErrInvalidConfig)
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}

	if _, err := hubs.NewRegistry(c.Hubs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// TrustedProxyPrefixes разбирает TRUSTED_PROXIES: адреса и CIDR сети прокси,
// которым разрешено передавать адрес клиента в X-Forwarded-For.
// Пустой список означает, что заголовки не учитываются.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: TRUSTED_PROXIES entry %q: %w", ErrInvalidConfig, raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: TRUSTED_PROXIES entry %q: %w", ErrInvalidConfig, raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Scopes возвращает запрашиваемые OAuth scopes
func (c *Config) Scopes() []string {
	return strings.Fields(c.Scope)
}

// Registry возвращает реестр хабов из конфигурации
func (c *Config) Registry() (*hubs.Registry, error) {
	return hubs.NewRegistry(c.Hubs...)
}
