// Package http provides HTTP server implementation and request handlers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	authHTTP "github.com/allisson/authguard/internal/auth/http"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticLoginUseCase struct{}

func (s *staticLoginUseCase) Login(_ context.Context, _ *authUseCase.LoginInput) (*authUseCase.LoginOutput, error) {
	return &authUseCase.LoginOutput{SubjectID: "subject-1", MFARequired: true}, nil
}

func (s *staticLoginUseCase) CompleteMFA(_ context.Context, _ *authUseCase.CompleteMFAInput) (*authDomain.TokenPair, error) {
	return &authDomain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

type rejectTokenUseCase struct{}

func (r *rejectTokenUseCase) Issue(_ context.Context, _ string, _ authDomain.DeviceInfo) (*authDomain.TokenPair, error) {
	return nil, authDomain.ErrInvalidCredential
}

func (r *rejectTokenUseCase) Verify(_ context.Context, _ string, _ authDomain.TokenKind) (*authDomain.Claims, error) {
	return nil, authDomain.ErrInvalidCredential
}

func (r *rejectTokenUseCase) Refresh(_ context.Context, _ string) (*authDomain.TokenPair, error) {
	return nil, authDomain.ErrInvalidCredential
}

func (r *rejectTokenUseCase) Revoke(_ context.Context, _, _ string) error {
	return nil
}

type allowAllLimiter struct{}

func (a *allowAllLimiter) Check(_ context.Context, _, _ string) (*ratelimitDomain.Decision, error) {
	return &ratelimitDomain.Decision{Allowed: true, Limit: 100, Remaining: 99}, nil
}

func testRouterConfig(logger *slog.Logger) *RouterConfig {
	tokens := &rejectTokenUseCase{}
	return &RouterConfig{
		AuthHandler:  authHTTP.NewAuthHandler(&staticLoginUseCase{}, logger),
		TokenHandler: authHTTP.NewTokenHandler(tokens, logger),
		TokenUseCase: tokens,
		Limiter:      &allowAllLimiter{},
	}
}

func TestHealthHandler(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, testLogger())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready while context is live", func(t *testing.T) {
		router := gin.New()
		router.GET("/ready", ReadinessHandler(context.Background()))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/ready", nil)
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("not ready after shutdown begins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		router := gin.New()
		router.GET("/ready", ReadinessHandler(ctx))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/ready", nil)
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	})
}

func TestRequestIDHeader(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, testLogger())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(recorder, request)

	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}

func TestServerRouting(t *testing.T) {
	logger := testLogger()
	server := NewServer(testRouterConfig(logger), "localhost", 8080, logger)

	t.Run("login endpoint is reachable without a bearer", func(t *testing.T) {
		body, err := json.Marshal(map[string]any{
			"email":    "alice@example.com",
			"password": "S3cret!pass",
			"device":   map[string]string{"device_id": "device-1"},
		})
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
		server.GetHandler().ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, true, response["mfa_required"])
	})

	t.Run("protected endpoint rejects without a bearer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", bytes.NewReader([]byte(`{}`)))
		server.GetHandler().ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/unknown", nil)
		server.GetHandler().ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
