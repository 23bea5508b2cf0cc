// Package sso реализует вход через EVE SSO (OAuth2 authorization code flow):
// обмен кода на токены, обновление access token и запрос "кто я".
package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/iudanet/traderouter/internal/upstream"
)

// DefaultBaseURL адрес EVE SSO по умолчанию
const DefaultBaseURL = "https://login.eveonline.com"

// Config параметры OAuth приложения, зарегистрированного в EVE developers
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	UserAgent    string
	Scopes       []string
	Timeout      time.Duration
}

// Identity представляет ответ /oauth/verify
type Identity struct {
	CharacterName string `json:"CharacterName"`
	CharacterID   int64  `json:"CharacterID"`
}

// Provider клиент EVE SSO
type Provider struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	verifyURL  string
}

// NewProvider создает новый клиент EVE SSO
func NewProvider(cfg Config) *Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/v2/oauth/authorize",
				TokenURL:  base + "/v2/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &userAgentTransport{userAgent: cfg.UserAgent, next: http.DefaultTransport},
		},
		verifyURL: base + "/oauth/verify",
	}
}

// AuthorizeURL возвращает адрес страницы входа EVE SSO
func (p *Provider) AuthorizeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange обменивает authorization code на пару access/refresh token
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.oauth.Exchange(p.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", upstream.ErrExchange, err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w: token response without refresh token", upstream.ErrExchange, upstream.ErrMalformed)
	}
	return tok, nil
}

// Refresh получает свежий access token по refresh token.
// Если SSO ротировал refresh token, новый возвращается в результате.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ts := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %w", upstream.ErrExchange, err)
	}
	return tok, nil
}

// Verify возвращает персонажа, которому выдан access token
func (p *Provider) Verify(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.verifyURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify: %w", upstream.ErrLookup, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: verify: failed to read response body: %w", upstream.ErrLookup, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: verify responded %d: %s", upstream.ErrLookup, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var id Identity
	if err := json.Unmarshal(body, &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %w: %w", upstream.ErrLookup, upstream.ErrMalformed, err)
	}
	if id.CharacterID <= 0 || id.CharacterName == "" {
		return Identity{}, fmt.Errorf("%w: %w: verify response without character", upstream.ErrLookup, upstream.ErrMalformed)
	}

	return id, nil
}

// clientContext передает oauth2 наш HTTP клиент (User-Agent, timeout)
func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// userAgentTransport добавляет User-Agent ко всем исходящим запросам.
// CCP требует идентифицирующий User-Agent от сторонних приложений.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}
