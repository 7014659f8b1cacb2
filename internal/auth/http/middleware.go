package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer token in the
// Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Verifies it as an access credential (signature, expiry, revocation,
//    session mirror)
// 3. Stores the verified claims in the request context for GetClaims()
//
// Error handling:
//   - Missing/malformed Authorization header → 401 Unauthorized
//   - Invalid/expired/revoked credential or unknown session → 401 Unauthorized
//   - Cache unavailability during verification → 503 Service Unavailable
//     (verification is fail-closed, never admitted on a blind check)
func AuthenticationMiddleware(tokenUseCase authUseCase.TokenUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := tokenUseCase.Verify(c.Request.Context(), plainToken, authDomain.TokenKindAccess)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
