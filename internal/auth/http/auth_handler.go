package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	"github.com/allisson/authguard/internal/auth/http/dto"
	authUseCase "github.com/allisson/authguard/internal/auth/usecase"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// AuthHandler handles HTTP requests for login and step-up completion.
type AuthHandler struct {
	loginUseCase authUseCase.LoginUseCase
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(loginUseCase authUseCase.LoginUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		loginUseCase: loginUseCase,
		logger:       logger,
	}
}

// LoginHandler authenticates an email/password pair.
// POST /v1/auth/login - No authentication required (this is the authentication endpoint).
// Returns 200 OK with tokens, or with mfa_required when the attempt was
// stepped up to a second factor.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authUseCase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Device:   req.Device.ToDeviceInfo(c.ClientIP()),
		Origin:   req.Origin,
		Location: req.Location.ToCoordinate(),
	}

	output, err := h.loginUseCase.Login(c.Request.Context(), input)
	if err != nil {
		handleLoginError(c, err, h.logger)
		return
	}

	response := dto.LoginResponse{
		SubjectID:   output.SubjectID,
		MFARequired: output.MFARequired,
	}
	if output.Tokens != nil {
		pair := dto.MapTokenPairToResponse(output.Tokens)
		response.Tokens = &pair
	}

	c.JSON(http.StatusOK, response)
}

// CompleteMFAHandler finishes a stepped-up login with a challenge code.
// POST /v1/auth/mfa/complete - No authentication required (the code is the credential).
// Returns 200 OK with tokens.
func (h *AuthHandler) CompleteMFAHandler(c *gin.Context) {
	var req dto.CompleteMFARequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authUseCase.CompleteMFAInput{
		SubjectID: req.SubjectID,
		Code:      req.Code,
		Device:    req.Device.ToDeviceInfo(c.ClientIP()),
	}

	pair, err := h.loginUseCase.CompleteMFA(c.Request.Context(), input)
	if err != nil {
		handleLoginError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenPairToResponse(pair))
}

// handleLoginError surfaces the cooldown on rate-limited attempts; everything
// else takes the standard error mapping.
func handleLoginError(c *gin.Context, err error, logger *slog.Logger) {
	var rateLimited *authDomain.RateLimitedError
	if apperrors.As(err, &rateLimited) {
		httputil.HandleRateLimitGin(c, rateLimited.RetryAfter, logger)
		return
	}
	httputil.HandleErrorGin(c, err, logger)
}
