// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
)

// TokenPairResponse contains issued session credentials.
// SECURITY: Tokens are only returned once and must be saved securely.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	SessionID        string    `json:"session_id"`
}

// MapTokenPairToResponse converts a domain token pair to an API response.
func MapTokenPairToResponse(pair *authDomain.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		SessionID:        pair.SessionID,
	}
}

// LoginResponse contains the result of a login attempt. Tokens is absent
// when MFARequired is set; the client must complete the challenge first.
type LoginResponse struct {
	SubjectID   string             `json:"subject_id"`
	MFARequired bool               `json:"mfa_required"`
	Tokens      *TokenPairResponse `json:"tokens,omitempty"`
}

// ChallengeResponse acknowledges an issued MFA challenge without revealing
// the code.
type ChallengeResponse struct {
	Status string `json:"status"`
	Method string `json:"method"`
}

// VerifyChallengeResponse acknowledges a verified MFA challenge.
type VerifyChallengeResponse struct {
	Status string `json:"status"`
}

// ModalityScoreResponse is the per-modality outcome of a verification.
type ModalityScoreResponse struct {
	Modality   string  `json:"modality"`
	Similarity float64 `json:"similarity"`
	Quality    float64 `json:"quality"`
	Confidence float64 `json:"confidence"`
}

// VerificationResponse represents a biometric arbitration outcome in API
// responses.
type VerificationResponse struct {
	SubjectID      string                  `json:"subject_id"`
	Valid          bool                    `json:"valid"`
	Confidence     float64                 `json:"confidence"`
	MeanConfidence float64                 `json:"mean_confidence"`
	Liveness       float64                 `json:"liveness"`
	FraudScore     float64                 `json:"fraud_score"`
	SpoofingScore  float64                 `json:"spoofing_score"`
	SecurityLevel  string                  `json:"security_level"`
	NextAction     string                  `json:"next_action"`
	Modalities     []ModalityScoreResponse `json:"modalities"`
}

// MapVerificationToResponse converts a domain verification result to an API
// response.
func MapVerificationToResponse(result *biometricDomain.VerificationResult) VerificationResponse {
	modalities := make([]ModalityScoreResponse, 0, len(result.Modalities))
	for _, score := range result.Modalities {
		modalities = append(modalities, ModalityScoreResponse{
			Modality:   score.Modality,
			Similarity: score.Similarity,
			Quality:    score.Quality,
			Confidence: score.Confidence,
		})
	}
	return VerificationResponse{
		SubjectID:      result.SubjectID,
		Valid:          result.Valid,
		Confidence:     result.Confidence,
		MeanConfidence: result.MeanConfidence,
		Liveness:       result.Liveness,
		FraudScore:     result.FraudScore,
		SpoofingScore:  result.SpoofingScore,
		SecurityLevel:  result.SecurityLevel,
		NextAction:     result.NextAction,
		Modalities:     modalities,
	}
}

// RiskResponse reports a subject's current behavioral risk score.
type RiskResponse struct {
	SubjectID string  `json:"subject_id"`
	RiskScore float64 `json:"risk_score"`
}
