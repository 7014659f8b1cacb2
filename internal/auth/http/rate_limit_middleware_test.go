package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
)

type stubLimiter struct {
	decision   *ratelimitDomain.Decision
	err        error
	subjectID  string
	actionKind string
}

func (s *stubLimiter) Check(_ context.Context, subjectID, actionKind string) (*ratelimitDomain.Decision, error) {
	s.subjectID = subjectID
	s.actionKind = actionKind
	if s.err != nil {
		return nil, s.err
	}
	return s.decision, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.DiscardHandler)

	newRouter := func(limiter *stubLimiter, authenticated bool) *gin.Engine {
		router := gin.New()
		if authenticated {
			router.Use(withClaims(accessClaims("subject-1")))
		}
		router.Use(RateLimitMiddleware(limiter, ratelimitDomain.ActionAPIRequest, logger))
		router.GET("/resource", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("allowed request reports remaining quota", func(t *testing.T) {
		limiter := &stubLimiter{decision: &ratelimitDomain.Decision{
			Allowed:   true,
			Limit:     100,
			Remaining: 57,
		}}

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/resource", nil)
		newRouter(limiter, true).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "57", recorder.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "subject-1", limiter.subjectID)
		assert.Equal(t, ratelimitDomain.ActionAPIRequest, limiter.actionKind)
	})

	t.Run("rejected request gets 429 with retry hint", func(t *testing.T) {
		limiter := &stubLimiter{decision: &ratelimitDomain.Decision{
			Allowed:    false,
			Limit:      100,
			RetryAfter: 300 * time.Second,
		}}

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/resource", nil)
		newRouter(limiter, true).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.Equal(t, "300", recorder.Header().Get("Retry-After"))
	})

	t.Run("missing claims is an internal error", func(t *testing.T) {
		limiter := &stubLimiter{decision: &ratelimitDomain.Decision{Allowed: true}}

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/resource", nil)
		newRouter(limiter, false).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Empty(t, limiter.subjectID)
	})
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.DiscardHandler)

	router := gin.New()
	router.Use(IPRateLimitMiddleware(1, 2, logger))
	router.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Burst of 2 is admitted, the third request in the same instant is not.
	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/login", nil)
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/login", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
}
