package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/traderouter/internal/upstream"
)

type fakeLogin struct{}

func (fakeLogin) AuthorizeURL(state string) string {
	return "https://login.example.test/v2/oauth/authorize?state=" + url.QueryEscape(state)
}

type fakeExchanger struct {
	token string
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type routerFixture struct {
	handler   *RouterHandler
	exchanger *fakeExchanger
	routes    *fakeRoutes
	names     *mockNamer
	pilots    *mockPilotStorage
	flasher   *Flasher
	states    *StateSigner
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		exchanger: &fakeExchanger{token: "refresh/new+1"},
		routes:    &fakeRoutes{},
		names:     &mockNamer{names: map[int32]string{30000144: "Perimeter"}},
		pilots:    newMockPilotStorage(),
		flasher:   NewFlasher(testKey, testPrefix, false),
		states:    NewStateSigner(testKey),
	}
	f.handler = NewRouterHandler(
		setupTestLogger(),
		Site{Name: "Trade Router", Prefix: testPrefix},
		fakeLogin{},
		f.exchanger,
		f.names,
		newTestAggregator(f.routes),
		f.pilots,
		f.flasher,
		f.states,
	)
	return f
}

func TestRouterHandler_Landing(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/", nil)
	w := httptest.NewRecorder()
	f.handler.Landing(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	requireBodyContains(t, w, "Trade Router", "Log in with EVE Online", "login.example.test")
	assert.Zero(t, f.routes.calls)
}

func TestRouterHandler_Landing_ShowsFlashOnce(t *testing.T) {
	f := newRouterFixture()

	seed := httptest.NewRecorder()
	require.NoError(t, f.flasher.Add(seed, httptest.NewRequest(http.MethodGet, testPrefix+"/", nil), "error", "There was an error signing you in."))

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/", nil)
	req.AddCookie(seed.Result().Cookies()[0])
	w := httptest.NewRecorder()
	f.handler.Landing(w, req)

	requireBodyContains(t, w, "There was an error signing you in.")
	assert.Empty(t, flashesFrom(t, f.flasher, w), "flash must be consumed")
}

func TestRouterHandler_Callback(t *testing.T) {
	f := newRouterFixture()

	state, err := f.states.Issue()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		testPrefix+"/router?code=abc&state="+url.QueryEscape(state), nil)
	w := httptest.NewRecorder()
	f.handler.Callback(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testPrefix+"/router/"+url.PathEscape("refresh/new+1"), w.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, f.exchanger.codes)
	assert.Empty(t, flashesFrom(t, f.flasher, w))
}

func TestRouterHandler_Callback_Failures(t *testing.T) {
	validState, err := NewStateSigner(testKey).Issue()
	require.NoError(t, err)

	tests := []struct {
		name         string
		query        string
		exchangeErr  error
		wantLocation string
		wantMessage  string
		wantExchange bool
	}{
		{
			name:         "sso error",
			query:        "error=access_denied",
			wantLocation: testPrefix + "/router",
			wantMessage:  "There was an error in EVE's response",
		},
		{
			name:         "missing code",
			query:        "state=" + url.QueryEscape(validState),
			wantLocation: testPrefix + "/",
			wantMessage:  "There was an error signing you in.",
		},
		{
			name:         "invalid state",
			query:        "code=abc&state=forged",
			wantLocation: testPrefix + "/",
			wantMessage:  "There was an error signing you in.",
		},
		{
			name:         "exchange failed",
			query:        "code=abc&state=" + url.QueryEscape(validState),
			exchangeErr:  fmt.Errorf("%w: invalid_grant", upstream.ErrExchange),
			wantLocation: testPrefix + "/",
			wantMessage:  "There was an error signing you in.",
			wantExchange: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture()
			f.exchanger.err = tt.exchangeErr

			req := httptest.NewRequest(http.MethodGet, testPrefix+"/router?"+tt.query, nil)
			w := httptest.NewRecorder()
			f.handler.Callback(w, req)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			assert.Equal(t, tt.wantExchange, len(f.exchanger.codes) > 0)

			flashes := flashesFrom(t, f.flasher, w)
			require.Len(t, flashes, 1)
			assert.Equal(t, "error", flashes[0].Category)
			assert.Equal(t, tt.wantMessage, flashes[0].Message)
		})
	}
}

func TestRouterHandler_Dashboard(t *testing.T) {
	f := newRouterFixture()
	s := testSession()

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/router/refresh-1", nil)
	w := httptest.NewRecorder()
	withSession(f.handler.Dashboard, s).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	requireBodyContains(t, w, "Test Pilot", "Perimeter", "Amarr", "Jita", "Dodixie", "Rens", "Hek")
	assert.Equal(t, 5, f.routes.calls)

	// пилот записан в журнал входов
	p, err := f.pilots.GetPilot(context.Background(), s.PilotID)
	require.NoError(t, err)
	assert.Equal(t, "Test Pilot", p.Name)
	assert.Equal(t, int32(30000144), p.LastSystemID)
}

func TestRouterHandler_Dashboard_LedgerErrorIgnored(t *testing.T) {
	f := newRouterFixture()
	f.pilots.upsertErr = errors.New("disk full")

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/router/refresh-1", nil)
	w := httptest.NewRecorder()
	withSession(f.handler.Dashboard, testSession()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterHandler_Dashboard_Failures(t *testing.T) {
	tests := []struct {
		name        string
		namesErr    error
		routesErr   error
		wantMessage string
	}{
		{
			name:        "lookup failed",
			namesErr:    fmt.Errorf("%w: status 503", upstream.ErrLookup),
			wantMessage: "There was an error: " + upstream.KindLookup.Message(),
		},
		{
			name:        "route failed",
			routesErr:   errors.New("connection reset"),
			wantMessage: "There was an error: " + upstream.KindRoute.Message(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture()
			f.names.err = tt.namesErr
			f.routes.err = tt.routesErr

			req := httptest.NewRequest(http.MethodGet, testPrefix+"/router/refresh-1", nil)
			w := httptest.NewRecorder()
			withSession(f.handler.Dashboard, testSession()).ServeHTTP(w, req)

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, testPrefix+"/", w.Header().Get("Location"))

			flashes := flashesFrom(t, f.flasher, w)
			require.Len(t, flashes, 1)
			assert.Equal(t, tt.wantMessage, flashes[0].Message)
			assert.Empty(t, f.pilots.pilots, "failed dashboard must not be recorded")
		})
	}
}

func TestRouterHandler_SessionFailed(t *testing.T) {
	f := newRouterFixture()

	req := httptest.NewRequest(http.MethodGet, testPrefix+"/router/stale", nil)
	w := httptest.NewRecorder()
	f.handler.SessionFailed(w, req, fmt.Errorf("%w: invalid_grant", upstream.ErrExchange))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testPrefix+"/", w.Header().Get("Location"))

	flashes := flashesFrom(t, f.flasher, w)
	require.Len(t, flashes, 1)
	assert.Equal(t, "There was an error: "+upstream.KindExchange.Message(), flashes[0].Message)
	assert.Zero(t, f.routes.calls)
}
