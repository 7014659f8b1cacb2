package http

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
	ratelimitUseCase "github.com/allisson/authguard/internal/ratelimit/usecase"
)

// RateLimitMiddleware enforces the subject's risk-adjusted budget for an
// action kind. Must run after AuthenticationMiddleware: the subject comes
// from the verified claims.
//
// On rejection the response is 429 with a Retry-After header and a zero
// remaining quota; on admission the remaining quota for the window is
// reported in X-RateLimit-Remaining.
func RateLimitMiddleware(
	limiter ratelimitUseCase.LimiterUseCase,
	actionKind string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c.Request.Context())
		if !ok {
			// Middleware ordering defect, not a client error.
			httputil.HandleErrorGin(c, apperrors.New("rate limit middleware requires authentication"), logger)
			c.Abort()
			return
		}

		decision, err := limiter.Check(c.Request.Context(), claims.Subject, actionKind)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if !decision.Allowed {
			httputil.HandleRateLimitGin(c, decision.RetryAfter, logger)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// APIRateLimitMiddleware is RateLimitMiddleware for generic API traffic.
func APIRateLimitMiddleware(limiter ratelimitUseCase.LimiterUseCase, logger *slog.Logger) gin.HandlerFunc {
	return RateLimitMiddleware(limiter, ratelimitDomain.ActionAPIRequest, logger)
}
