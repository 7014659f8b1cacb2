package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authguard/internal/auth/http/dto"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// TokenHandler handles HTTP requests for session credential rotation and
// revocation.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// RefreshTokenHandler rotates a refresh credential into a fresh pair.
// POST /v1/auth/refresh - No bearer required (the refresh token is the credential).
// Returns 200 OK with the new token pair; the presented token is revoked.
func (h *TokenHandler) RefreshTokenHandler(c *gin.Context) {
	var req dto.RefreshTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	pair, err := h.tokenUseCase.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenPairToResponse(pair))
}

// RevokeTokenHandler revokes the presented refresh credential and its
// mirrored device session.
// POST /v1/auth/logout - Requires bearer authentication.
// Returns 204 No Content. Idempotent.
func (h *TokenHandler) RevokeTokenHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.New("revoke handler requires authentication"), h.logger)
		return
	}

	var req dto.RevokeTokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.tokenUseCase.Revoke(c.Request.Context(), req.RefreshToken, claims.Subject); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
