package console

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/dataaccess"
	"github.com/finsite/backend/internal/infrastructure/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (dataaccess.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(dataaccess.LoginResult), args.Error(1)
}

func (m *MockAuthenticator) VerifySecondFactor(ctx context.Context, tempToken, code string) (dataaccess.LoginResult, error) {
	args := m.Called(ctx, tempToken, code)
	return args.Get(0).(dataaccess.LoginResult), args.Error(1)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestManager(auth Authenticator, backend *fakeBackend, tokens session.TokenStore, opts ...ManagerOption) *Manager {
	return NewManager(
		NewRemoteCredentialProvider(auth),
		tokens,
		func(string) Backend { return backend },
		ManagerConfig{PollInterval: 50 * time.Millisecond, SessionTTL: time.Hour},
		opts...,
	)
}

func TestManager_InvalidLoginStaysLoggedOut(t *testing.T) {
	unauthorized := shared.NewStatusError("auth.login", http.StatusUnauthorized, "Invalid credentials")
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "staff@example.com", "wrong").
		Return(dataaccess.LoginResult{WriteResult: shared.ResultFromError(unauthorized, "")}, unauthorized)

	backend := newFakeBackend()
	m := newTestManager(auth, backend, session.NewInMemoryTokenStore())

	sess, result, err := m.Login(context.Background(), "staff@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, StateLoggedOut, sess.State)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid credentials", result.Message)
	assert.Equal(t, 0, m.Len())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, backend.count("GetArticles"), "no polling without authentication")
}

func TestManager_LoginWithSecondFactor(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "staff@example.com", "secret").
		Return(dataaccess.LoginResult{WriteResult: shared.WriteResult{Success: true}, RequiresSecondFactor: true, TempToken: "tmp-1"}, nil)
	auth.On("VerifySecondFactor", mock.Anything, "tmp-1", "123456").
		Return(dataaccess.LoginResult{WriteResult: shared.WriteResult{Success: true}, AccessToken: token}, nil)

	backend := newFakeBackend()
	tokens := session.NewInMemoryTokenStore()
	m := newTestManager(auth, backend, tokens)
	defer m.Shutdown(context.Background())

	sess, _, err := m.Login(context.Background(), "staff@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingSecondFactor, sess.State)
	_, _, err = m.Console(sess.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	sess, _, err = m.Verify(context.Background(), sess.ID, " 123456 ")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, sess.State)
	assert.Equal(t, ViaPassword, sess.Via)

	stored, err := tokens.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	require.Eventually(t, func() bool { return backend.count("GetArticles") >= 1 }, 40*time.Millisecond, time.Millisecond)
	auth.AssertExpectations(t)
}

func TestManager_DevLoginSkipsAuthenticator(t *testing.T) {
	auth := new(MockAuthenticator)
	dev, err := NewLocalDevCredentialProvider(DevLoginConfig{Enabled: true, Delay: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	backend := newFakeBackend()
	m := newTestManager(auth, backend, session.NewInMemoryTokenStore(), WithDevProvider(dev))
	defer m.Shutdown(context.Background())
	require.True(t, m.DevLoginAvailable())

	start := time.Now()
	sess, err := m.DevLogin(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, StateAuthenticated, sess.State)
	assert.Equal(t, ViaDev, sess.Via)
	require.NoError(t, session.CheckToken(sess.Token, time.Now()))

	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	auth.AssertNotCalled(t, "VerifySecondFactor", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewLocalDevCredentialProvider_Refused(t *testing.T) {
	tests := []struct {
		name string
		cfg  DevLoginConfig
	}{
		{"disabled", DevLoginConfig{}},
		{"production", DevLoginConfig{Enabled: true, Production: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLocalDevCredentialProvider(tt.cfg, nil)
			assert.ErrorIs(t, err, ErrDevLoginRefused)
			assert.Nil(t, p)
		})
	}

	m := newTestManager(new(MockAuthenticator), newFakeBackend(), session.NewInMemoryTokenStore())
	_, err := m.DevLogin(context.Background())
	assert.ErrorIs(t, err, ErrDevLoginDisabled)
}

func TestManager_LogoutStopsPolling(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(dataaccess.LoginResult{WriteResult: shared.WriteResult{Success: true}, AccessToken: signedToken(t, time.Now().Add(time.Hour))}, nil)

	backend := newFakeBackend()
	tokens := session.NewInMemoryTokenStore()
	m := newTestManager(auth, backend, tokens)

	sess, _, err := m.Login(context.Background(), "staff@example.com", "secret")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return backend.count("GetTeam") >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Logout(context.Background(), sess.ID))
	after := backend.count("GetTeam")
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, backend.count("GetTeam"))

	_, _, err = m.Console(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = tokens.Load(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrTokenNotFound)
}

func TestManager_Resume(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	tokens := session.NewInMemoryTokenStore()
	m := newTestManager(new(MockAuthenticator), backend, tokens)
	defer m.Shutdown(ctx)

	t.Run("valid token restores the console", func(t *testing.T) {
		require.NoError(t, tokens.Save(ctx, "s-valid", signedToken(t, time.Now().Add(time.Hour)), 0))
		sess, err := m.Resume(ctx, "s-valid")
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, sess.State)
		_, _, err = m.Console("s-valid")
		assert.NoError(t, err)
	})

	t.Run("expired token is deleted", func(t *testing.T) {
		require.NoError(t, tokens.Save(ctx, "s-expired", signedToken(t, time.Now().Add(-time.Minute)), 0))
		_, err := m.Resume(ctx, "s-expired")
		assert.ErrorIs(t, err, ErrSessionExpired)
		_, err = tokens.Load(ctx, "s-expired")
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("opaque token resumes", func(t *testing.T) {
		require.NoError(t, tokens.Save(ctx, "s-opaque", "opaque-abc123", 0))
		sess, err := m.Resume(ctx, "s-opaque")
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, sess.State)
		assert.Equal(t, ViaResume, sess.Via)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := m.Resume(ctx, "s-none")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManager_SweepAndShutdown(t *testing.T) {
	ctx := context.Background()
	tokens := session.NewInMemoryTokenStore()
	backend := newFakeBackend()
	m := newTestManager(new(MockAuthenticator), backend, tokens)

	now := time.Now()
	m.now = func() time.Time { return now }
	require.NoError(t, tokens.Save(ctx, "old", signedToken(t, now.Add(3*time.Hour)), 0))
	_, err := m.Resume(ctx, "old")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Len())
	_, err = tokens.Load(ctx, "old")
	assert.NoError(t, err, "sweep keeps the persisted token")

	require.NoError(t, m.Shutdown(ctx))
	_, err = m.Resume(ctx, "old")
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManager_OpaqueTokenSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, "staff@example.com", "secret").
		Return(dataaccess.LoginResult{WriteResult: shared.WriteResult{Success: true}, AccessToken: "opaque-abc123"}, nil)

	tokens := session.NewInMemoryTokenStore()
	first := newTestManager(auth, newFakeBackend(), tokens)
	sess, _, err := first.Login(ctx, "staff@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(ctx))

	second := newTestManager(auth, newFakeBackend(), tokens)
	defer second.Shutdown(ctx)

	resumed, err := second.Resume(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, resumed.State)
	assert.Equal(t, "opaque-abc123", resumed.Token)
}

func TestManager_ResumeDevToken(t *testing.T) {
	ctx := context.Background()
	newDev := func(t *testing.T) *LocalDevCredentialProvider {
		dev, err := NewLocalDevCredentialProvider(DevLoginConfig{Enabled: true}, nil)
		require.NoError(t, err)
		return dev
	}

	t.Run("refused once dev login is off", func(t *testing.T) {
		tokens := session.NewInMemoryTokenStore()
		first := newTestManager(new(MockAuthenticator), newFakeBackend(), tokens, WithDevProvider(newDev(t)))
		sess, err := first.DevLogin(ctx)
		require.NoError(t, err)
		require.NoError(t, first.Shutdown(ctx))

		second := newTestManager(new(MockAuthenticator), newFakeBackend(), tokens)
		defer second.Shutdown(ctx)

		resumed, err := second.Resume(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrDevLoginDisabled)
		assert.Equal(t, StateLoggedOut, resumed.State)
		_, err = tokens.Load(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrTokenNotFound)
	})

	t.Run("keeps the dev origin while enabled", func(t *testing.T) {
		tokens := session.NewInMemoryTokenStore()
		m := newTestManager(new(MockAuthenticator), newFakeBackend(), tokens, WithDevProvider(newDev(t)))
		defer m.Shutdown(ctx)

		now := time.Now()
		m.now = func() time.Time { return now }
		sess, err := m.DevLogin(ctx)
		require.NoError(t, err)
		now = now.Add(2 * time.Hour)
		require.Equal(t, 1, m.Sweep())
		m.now = time.Now

		resumed, err := m.Resume(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, ViaDev, resumed.Via)
	})

	t.Run("rejects a dev token signed elsewhere", func(t *testing.T) {
		tokens := session.NewInMemoryTokenStore()
		m := newTestManager(new(MockAuthenticator), newFakeBackend(), tokens, WithDevProvider(newDev(t)))
		defer m.Shutdown(ctx)

		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    DevTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("another-key"))
		require.NoError(t, err)
		require.NoError(t, tokens.Save(ctx, "s-forged", forged, 0))

		_, err = m.Resume(ctx, "s-forged")
		assert.ErrorIs(t, err, ErrDevLoginDisabled)
		_, _, err = m.Console("s-forged")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
