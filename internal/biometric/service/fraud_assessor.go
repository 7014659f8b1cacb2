package service

import (
	"context"
)

// Fraud signal weights applied to the subject's behavioral risk score. A
// subject mid-anomaly gets a correspondingly higher fraud prior on their
// biometric attempt.
const (
	fraudRiskWeight    = 0.5
	spoofingRiskWeight = 0.2
)

// RiskSource reports the subject's current behavioral risk score.
type RiskSource interface {
	CurrentScore(ctx context.Context, subjectID string) float64
}

// riskFraudAssessor derives fraud and spoofing priors from the behavioral
// risk profile. Deterministic given the profile state.
type riskFraudAssessor struct {
	risk RiskSource
}

// NewRiskFraudAssessor creates the default fraud assessor backed by the
// behavioral analyzer.
func NewRiskFraudAssessor(risk RiskSource) FraudAssessor {
	return &riskFraudAssessor{risk: risk}
}

// Assess maps the current risk score onto fraud and spoofing signals.
func (a *riskFraudAssessor) Assess(ctx context.Context, subjectID string) (float64, float64) {
	score := a.risk.CurrentScore(ctx, subjectID)
	return score * fraudRiskWeight, score * spoofingRiskWeight
}
