package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authguard/internal/auth/http/dto"
	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
	mfaUseCase "github.com/allisson/authguard/internal/mfa/usecase"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// MFAHandler handles HTTP requests for challenge generation and
// verification by an already-authenticated subject.
type MFAHandler struct {
	challengeUseCase mfaUseCase.ChallengeUseCase
	cache            cache.Cache
	logger           *slog.Logger
}

// NewMFAHandler creates a new MFA handler with required dependencies.
func NewMFAHandler(
	challengeUseCase mfaUseCase.ChallengeUseCase,
	cacheClient cache.Cache,
	logger *slog.Logger,
) *MFAHandler {
	return &MFAHandler{
		challengeUseCase: challengeUseCase,
		cache:            cacheClient,
		logger:           logger,
	}
}

// GenerateChallengeHandler issues a challenge code to the authenticated
// subject over the requested delivery method.
// POST /v1/mfa/challenge - Requires bearer authentication.
// Returns 202 Accepted; the code travels out of band.
func (h *MFAHandler) GenerateChallengeHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.New("mfa handler requires authentication"), h.logger)
		return
	}

	var req dto.GenerateChallengeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.challengeUseCase.Generate(c.Request.Context(), claims.Subject, req.Method); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.ChallengeResponse{
		Status: "challenge_sent",
		Method: req.Method,
	})
}

// VerifyChallengeHandler checks a submitted challenge code for the
// authenticated subject. A correct code also clears any pending step-up
// demand.
// POST /v1/mfa/verify - Requires bearer authentication.
// Returns 200 OK on a correct code.
func (h *MFAHandler) VerifyChallengeHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.New("mfa handler requires authentication"), h.logger)
		return
	}

	var req dto.VerifyChallengeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.challengeUseCase.Verify(c.Request.Context(), claims.Subject, req.Code); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.cache.Delete(c.Request.Context(), cache.StepUpKey(claims.Subject)); err != nil {
		h.logger.Warn("failed to clear step-up flag",
			slog.String("subject_id", claims.Subject),
			slog.Any("error", err),
		)
	}

	c.JSON(http.StatusOK, dto.VerifyChallengeResponse{Status: "verified"})
}
