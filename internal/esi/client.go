// Package esi реализует клиент EVE Swagger Interface: маршруты, имена,
// поиск солнечных систем и местоположение пилота.
package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/upstream"
)

// DefaultBaseURL адрес ESI по умолчанию
const DefaultBaseURL = "https://esi.evetech.net/latest"

// Name представляет ответ /universe/names/
type Name struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	ID       int64  `json:"id"`
}

// StatusError ответ ESI с кодом не 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("esi responded %d", e.StatusCode)
	}
	return fmt.Sprintf("esi responded %d: %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент ESI
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient создает новый ESI клиент
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Route возвращает маршрут от origin до destination как список ID систем,
// включая обе конечные точки
func (c *Client) Route(ctx context.Context, origin, destination int32) ([]int32, error) {
	var path []int32
	p := fmt.Sprintf("/route/%d/%d/", origin, destination)
	if err := c.doRequest(ctx, http.MethodGet, p, "", nil, &path); err != nil {
		return nil, fmt.Errorf("%w: %d -> %d: %w", upstream.ErrRoute, origin, destination, err)
	}
	return path, nil
}

// Names разрешает ID в имена
func (c *Client) Names(ctx context.Context, ids ...int64) ([]Name, error) {
	var names []Name
	if err := c.doRequest(ctx, http.MethodPost, "/universe/names/", "", ids, &names); err != nil {
		return nil, fmt.Errorf("%w: names: %w", upstream.ErrLookup, err)
	}
	return names, nil
}

// SystemName возвращает имя солнечной системы
func (c *Client) SystemName(ctx context.Context, systemID int32) (string, error) {
	names, err := c.Names(ctx, int64(systemID))
	if err != nil {
		return "", err
	}
	if len(names) == 0 || names[0].Name == "" {
		return "", fmt.Errorf("%w: %w: no name for system %d", upstream.ErrLookup, upstream.ErrMalformed, systemID)
	}
	return names[0].Name, nil
}

// searchResponse представляет ответ /search/
type searchResponse struct {
	SolarSystem []int32 `json:"solar_system"`
}

// SearchSystem ищет солнечную систему по точному имени
func (c *Client) SearchSystem(ctx context.Context, name string) (int32, error) {
	q := url.Values{}
	q.Set("categories", "solar_system")
	q.Set("language", "en")
	q.Set("strict", "true")
	q.Set("search", name)

	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/search/?"+q.Encode(), "", nil, &resp); err != nil {
		return 0, fmt.Errorf("%w: search %q: %w", upstream.ErrLookup, name, err)
	}
	if len(resp.SolarSystem) == 0 {
		return 0, fmt.Errorf("search %q: %w", name, upstream.ErrNotFound)
	}
	return resp.SolarSystem[0], nil
}

// Location возвращает текущее местоположение пилота.
// Требует access token со scope esi-location.read_location.v1
func (c *Client) Location(ctx context.Context, accessToken string, pilotID int64) (models.Location, error) {
	var loc models.Location
	p := "/characters/" + strconv.FormatInt(pilotID, 10) + "/location/"
	if err := c.doRequest(ctx, http.MethodGet, p, accessToken, nil, &loc); err != nil {
		return models.Location{}, fmt.Errorf("%w: location of %d: %w", upstream.ErrLookup, pilotID, err)
	}
	if loc.SolarSystemID <= 0 {
		return models.Location{}, fmt.Errorf("%w: %w: location without solar system", upstream.ErrLookup, upstream.ErrMalformed)
	}
	return loc, nil
}

// doRequest выполняет HTTP запрос к ESI
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Message = errResp.Error
		}
		return statusErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %w", upstream.ErrMalformed, err)
		}
	}

	return nil
}
