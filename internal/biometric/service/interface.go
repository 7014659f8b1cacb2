// Package service defines the pluggable biometric scoring pipeline. The
// default implementations are deterministic so arbitration stays
// reproducible; real matching models slot in behind the same interfaces.
package service

import (
	"context"

	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
)

// Matcher scores a presented sample against an enrolled template reference.
// Similarity and quality are both in [0,1].
type Matcher interface {
	Match(reference string, sample biometricDomain.Sample) (similarity float64, quality float64, err error)
}

// LivenessDetector scores how likely the capture came from a live subject,
// in [0,1].
type LivenessDetector interface {
	Detect(sample biometricDomain.Sample) float64
}

// FraudAssessor supplies the fraud and spoofing signals for a subject's
// verification attempt, both in [0,1].
type FraudAssessor interface {
	Assess(ctx context.Context, subjectID string) (fraud float64, spoofing float64)
}
