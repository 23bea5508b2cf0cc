package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/traderouter/internal/hubs"
	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

const testPrefix = "/router"

// fakeRoutes is a RouteFinder returning a direct jump unless told otherwise
type fakeRoutes struct {
	err   error
	paths map[int32][]int32
	calls int
}

func (f *fakeRoutes) Route(ctx context.Context, origin, destination int32) ([]int32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.paths[destination]; ok {
		return p, nil
	}
	if origin == destination {
		return []int32{origin}, nil
	}
	return []int32{origin, destination}, nil
}

// mockNamer is a mock implementation of SystemNamer for testing
type mockNamer struct {
	names map[int32]string
	err   error
}

func (m *mockNamer) SystemName(ctx context.Context, systemID int32) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.names[systemID], nil
}

// mockPilotStorage is a mock implementation of PilotStorage for testing
type mockPilotStorage struct {
	pilots    map[int64]*models.Pilot
	pingErr   error
	upsertErr error
	touched   []int64
	mu        sync.Mutex
}

func newMockPilotStorage() *mockPilotStorage {
	return &mockPilotStorage{pilots: make(map[int64]*models.Pilot)}
}

func (m *mockPilotStorage) UpsertPilot(ctx context.Context, pilot *models.Pilot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.pilots[pilot.ID] = pilot
	return nil
}

func (m *mockPilotStorage) GetPilot(ctx context.Context, id int64) (*models.Pilot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pilots[id]
	if !ok {
		return nil, storage.ErrPilotNotFound
	}
	return p, nil
}

func (m *mockPilotStorage) TouchPilot(ctx context.Context, id int64, systemID int32, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pilots[id]
	if !ok {
		return storage.ErrPilotNotFound
	}
	p.LastSystemID = systemID
	p.LastSeen = at
	m.touched = append(m.touched, id)
	return nil
}

func (m *mockPilotStorage) CountPilots(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pilots), nil
}

func (m *mockPilotStorage) Ping(ctx context.Context) error {
	return m.pingErr
}

func newTestAggregator(routes *fakeRoutes) *hubs.Aggregator {
	return hubs.NewAggregator(routes, hubs.DefaultRegistry(), setupTestLogger())
}

func testSession() *models.Session {
	return &models.Session{
		PilotID:      2112000001,
		PilotName:    "Test Pilot",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Location:     models.Location{SolarSystemID: 30000144},
	}
}

// withPattern serves a single request through a ServeMux so r.PathValue works
func withPattern(pattern string, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// withSession attaches a resolved session the way middleware.RequireSession does
func withSession(h http.HandlerFunc, s *models.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// flashesFrom replays Set-Cookie headers of a response into a new request
// and reads the flashes back
func flashesFrom(t *testing.T, f *Flasher, resp *httptest.ResponseRecorder) []Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, testPrefix+"/", nil)
	for _, c := range resp.Result().Cookies() {
		if c.Name == flashCookieName && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return f.Pop(httptest.NewRecorder(), req)
}

func requireBodyContains(t *testing.T, w *httptest.ResponseRecorder, parts ...string) {
	t.Helper()
	body := w.Body.String()
	for _, p := range parts {
		require.True(t, strings.Contains(body, p), "body must contain %q:\n%s", p, body)
	}
}
