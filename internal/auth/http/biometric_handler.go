package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authguard/internal/auth/http/dto"
	biometricUseCase "github.com/allisson/authguard/internal/biometric/usecase"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// BiometricHandler handles HTTP requests for multi-modal biometric
// verification.
type BiometricHandler struct {
	verifierUseCase biometricUseCase.VerifierUseCase
	logger          *slog.Logger
}

// NewBiometricHandler creates a new biometric handler with required dependencies.
func NewBiometricHandler(
	verifierUseCase biometricUseCase.VerifierUseCase,
	logger *slog.Logger,
) *BiometricHandler {
	return &BiometricHandler{
		verifierUseCase: verifierUseCase,
		logger:          logger,
	}
}

// VerifyHandler arbitrates the submitted samples against the authenticated
// subject's enrolled templates.
// POST /v1/biometric/verify - Requires bearer authentication.
// Returns 200 OK with the arbitration outcome; an invalid capture is a
// negative result, not an error.
func (h *BiometricHandler) VerifyHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.New("biometric handler requires authentication"), h.logger)
		return
	}

	var req dto.BiometricVerifyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	samples, err := req.ToSamples()
	if err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.verifierUseCase.Verify(c.Request.Context(), claims.Subject, samples)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationToResponse(result))
}
