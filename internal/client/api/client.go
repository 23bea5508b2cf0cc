package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iancoleman/orderedmap"

	"github.com/iudanet/traderouter/pkg/api"
)

// Client представляет HTTP клиент для JSON API TradeRouter
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// HubResult расстояние до хаба вместе с его именем
type HubResult struct {
	Hub string
	api.HubDistance
}

// ServerError ответ сервера со статусом вне 2xx
type ServerError struct {
	Kind       string
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server error (%d, %s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// NewClient создает новый API клиент.
// baseURL включает префикс монтирования, например http://localhost:8080/router
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// поиск делает до шести запросов к ESI
			Timeout: 2 * time.Minute,
		},
	}
}

// Search возвращает расстояния от системы до торговых хабов в порядке сервера
func (c *Client) Search(ctx context.Context, systemName string) ([]HubResult, error) {
	body, err := c.doRequest(ctx, "/search/"+url.PathEscape(systemName))
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	// порядок ключей берем из orderedmap, значения из типизированной map
	order := orderedmap.New()
	if err := json.Unmarshal(body, order); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	var values map[string]api.HubDistance
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]HubResult, 0, len(values))
	for _, hub := range order.Keys() {
		results = append(results, HubResult{Hub: hub, HubDistance: values[hub]})
	}
	return results, nil
}

// Health возвращает состояние сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	body, err := c.doRequest(ctx, "/health")
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}

	var resp api.HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет GET запрос и возвращает тело успешного ответа
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return nil, &ServerError{StatusCode: resp.StatusCode, Kind: errResp.Kind, Message: errResp.Message}
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}
