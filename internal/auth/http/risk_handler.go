package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/authguard/internal/auth/http/dto"
	behaviorUseCase "github.com/allisson/authguard/internal/behavior/usecase"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/httputil"
)

// RiskHandler handles HTTP requests for behavioral risk inspection.
type RiskHandler struct {
	analyzerUseCase behaviorUseCase.AnalyzerUseCase
	logger          *slog.Logger
}

// NewRiskHandler creates a new risk handler with required dependencies.
func NewRiskHandler(
	analyzerUseCase behaviorUseCase.AnalyzerUseCase,
	logger *slog.Logger,
) *RiskHandler {
	return &RiskHandler{
		analyzerUseCase: analyzerUseCase,
		logger:          logger,
	}
}

// CurrentRiskHandler reports the authenticated subject's current risk score.
// GET /v1/risk/score - Requires bearer authentication.
// Returns 200 OK with the last persisted score, zero for unknown subjects.
func (h *RiskHandler) CurrentRiskHandler(c *gin.Context) {
	claims, ok := GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.New("risk handler requires authentication"), h.logger)
		return
	}

	score := h.analyzerUseCase.CurrentScore(c.Request.Context(), claims.Subject)

	c.JSON(http.StatusOK, dto.RiskResponse{
		SubjectID: claims.Subject,
		RiskScore: score,
	})
}
