// Package domain defines the biometric verification model.
package domain

import (
	apperrors "github.com/allisson/authguard/internal/errors"
)

// Supported modalities.
const (
	ModalityFace        = "face"
	ModalityFingerprint = "fingerprint"
	ModalityVoice       = "voice"
)

// Security levels produced by verification arbitration.
const (
	SecurityLevelHigh   = "high"
	SecurityLevelMedium = "medium"
	SecurityLevelLow    = "low"
)

// Next actions the caller must take after verification.
const (
	NextActionProceedNormal      = "proceed_normal"
	NextActionAdditionalVerify   = "request_additional_verification"
	NextActionManualVerification = "require_manual_verification"
)

// Biometric verification errors.
var (
	// ErrModalityMismatch rejects a sample whose declared modality has no
	// enrolled template. Raised before any scoring happens.
	ErrModalityMismatch = apperrors.Wrap(apperrors.ErrInvalidInput, "sample modality does not match an enrolled template")

	// ErrNoTemplates means the subject has no biometric enrollment at all.
	ErrNoTemplates = apperrors.Wrap(apperrors.ErrNotFound, "no biometric templates enrolled")

	// ErrEmptySample rejects a sample without capture data.
	ErrEmptySample = apperrors.Wrap(apperrors.ErrInvalidInput, "biometric sample carries no data")
)

// Sample is a presented biometric capture. The declared modality must match
// an enrolled template.
type Sample struct {
	Modality string `json:"modality"`
	Data     []byte `json:"data"`
}

// ModalityScore is the per-modality outcome of matching.
type ModalityScore struct {
	Modality   string  `json:"modality"`
	Similarity float64 `json:"similarity"`
	Quality    float64 `json:"quality"`
	Confidence float64 `json:"confidence"`
}

// VerificationResult is the arbitration outcome for one verification attempt.
//
// Confidence is the combined product of the mean modality confidence,
// liveness, and the fraud/spoofing complements, clamped to [0,1]. The
// security level is mapped from the mean modality confidence alone, so a
// clean match at a risky moment still reports its match strength while the
// next action carries the escalation.
type VerificationResult struct {
	SubjectID      string          `json:"subject_id"`
	Valid          bool            `json:"valid"`
	Confidence     float64         `json:"confidence"`
	MeanConfidence float64         `json:"mean_confidence"`
	Liveness       float64         `json:"liveness"`
	FraudScore     float64         `json:"fraud_score"`
	SpoofingScore  float64         `json:"spoofing_score"`
	SecurityLevel  string          `json:"security_level"`
	NextAction     string          `json:"next_action"`
	Modalities     []ModalityScore `json:"modalities"`
}
