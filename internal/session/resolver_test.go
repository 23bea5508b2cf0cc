package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/sso"
	"github.com/iudanet/traderouter/internal/upstream"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockAuthenticator is a mock implementation of Authenticator for testing
type mockAuthenticator struct {
	token       *oauth2.Token
	identity    sso.Identity
	exchangeErr error
	refreshErr  error
	verifyErr   error
	calls       []string
}

func (m *mockAuthenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.calls = append(m.calls, "exchange")
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.token, nil
}

func (m *mockAuthenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	m.calls = append(m.calls, "refresh")
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.token, nil
}

func (m *mockAuthenticator) Verify(ctx context.Context, accessToken string) (sso.Identity, error) {
	m.calls = append(m.calls, "verify")
	if m.verifyErr != nil {
		return sso.Identity{}, m.verifyErr
	}
	return m.identity, nil
}

// mockLocator is a mock implementation of Locator for testing
type mockLocator struct {
	location   models.Location
	err        error
	gotToken   string
	gotPilotID int64
	called     bool
}

func (m *mockLocator) Location(ctx context.Context, accessToken string, pilotID int64) (models.Location, error) {
	m.called = true
	m.gotToken = accessToken
	m.gotPilotID = pilotID
	if m.err != nil {
		return models.Location{}, m.err
	}
	return m.location, nil
}

func newMocks() (*mockAuthenticator, *mockLocator) {
	auth := &mockAuthenticator{
		token:    &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1"},
		identity: sso.Identity{CharacterID: 2112000001, CharacterName: "Test Pilot"},
	}
	locator := &mockLocator{
		location: models.Location{SolarSystemID: 30000142, StationID: 60003760},
	}
	return auth, locator
}

func TestResolver_Resolve(t *testing.T) {
	auth, locator := newMocks()
	r := NewResolver(auth, locator, setupTestLogger())

	s, err := r.Resolve(context.Background(), "refresh-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2112000001), s.PilotID)
	assert.Equal(t, "Test Pilot", s.PilotName)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, int32(30000142), s.Location.SolarSystemID)

	// личность запрашивается до местоположения, местоположение по ID пилота
	assert.Equal(t, []string{"refresh", "verify"}, auth.calls)
	assert.Equal(t, int64(2112000001), locator.gotPilotID)
	assert.Equal(t, "access-1", locator.gotToken)
}

func TestResolver_Resolve_RotatedToken(t *testing.T) {
	auth, locator := newMocks()
	auth.token = &oauth2.Token{AccessToken: "access-2", RefreshToken: "refresh-2"}
	r := NewResolver(auth, locator, setupTestLogger())

	s, err := r.Resolve(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", s.RefreshToken)
}

func TestResolver_Resolve_KeepsTokenWhenNotRotated(t *testing.T) {
	auth, locator := newMocks()
	auth.token = &oauth2.Token{AccessToken: "access-2"}
	r := NewResolver(auth, locator, setupTestLogger())

	s, err := r.Resolve(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", s.RefreshToken)
}

func TestResolver_Resolve_Errors(t *testing.T) {
	refreshErr := fmt.Errorf("%w: invalid_grant", upstream.ErrExchange)
	verifyErr := fmt.Errorf("%w: verify responded 401", upstream.ErrLookup)
	locationErr := fmt.Errorf("%w: location", upstream.ErrLookup)

	tests := []struct {
		setup         func(*mockAuthenticator, *mockLocator)
		wantErr       error
		name          string
		wantKind      upstream.Kind
		locatorCalled bool
	}{
		{
			name: "refresh rejected",
			setup: func(a *mockAuthenticator, _ *mockLocator) {
				a.refreshErr = refreshErr
			},
			wantErr:  refreshErr,
			wantKind: upstream.KindExchange,
		},
		{
			name: "empty access token",
			setup: func(a *mockAuthenticator, _ *mockLocator) {
				a.token = &oauth2.Token{}
			},
			wantErr:  upstream.ErrExchange,
			wantKind: upstream.KindMalformed,
		},
		{
			name: "verify failed",
			setup: func(a *mockAuthenticator, _ *mockLocator) {
				a.verifyErr = verifyErr
			},
			wantErr:  verifyErr,
			wantKind: upstream.KindLookup,
		},
		{
			name: "location failed",
			setup: func(_ *mockAuthenticator, l *mockLocator) {
				l.err = locationErr
			},
			wantErr:       locationErr,
			wantKind:      upstream.KindLookup,
			locatorCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, locator := newMocks()
			tt.setup(auth, locator)
			r := NewResolver(auth, locator, setupTestLogger())

			s, err := r.Resolve(context.Background(), "refresh-1")
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, upstream.Classify(err))
			assert.Equal(t, tt.locatorCalled, locator.called)
		})
	}
}

func TestResolver_Exchange(t *testing.T) {
	auth, locator := newMocks()
	r := NewResolver(auth, locator, setupTestLogger())

	rt, err := r.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", rt)

	auth.exchangeErr = errors.New("sso down")
	_, err = r.Exchange(context.Background(), "code")
	require.Error(t, err)
}
