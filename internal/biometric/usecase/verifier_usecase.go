// Package usecase implements biometric verification arbitration.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
	biometricService "github.com/allisson/authguard/internal/biometric/service"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/events"
	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// Arbitration boundaries from the decision policy.
const (
	levelHighConfidence   = 0.9
	levelHighFraud        = 0.1
	levelMediumConfidence = 0.8
	levelMediumFraud      = 0.2

	manualVerificationFraud = 0.5
	additionalVerifyBelow   = 0.7
)

// TemplateStore is the credential-store contract for enrolled templates. The
// engine reads references and touches last-used, never the reference data.
type TemplateStore interface {
	GetTemplates(ctx context.Context, userID uuid.UUID) ([]*userDomain.BiometricTemplate, error)
	TouchTemplate(ctx context.Context, templateID uuid.UUID, usedAt time.Time) error
}

// VerifierUseCase arbitrates multi-modal biometric verification.
type VerifierUseCase interface {
	// Verify scores the presented samples against the subject's enrolled
	// templates and combines the signals into an accept/escalate decision.
	// Every attempt, pass or fail, emits a verification event and updates
	// the matched templates' last-used timestamps.
	Verify(ctx context.Context, subjectID string, samples []biometricDomain.Sample) (*biometricDomain.VerificationResult, error)
}

// verifierUseCase implements VerifierUseCase.
type verifierUseCase struct {
	templates           TemplateStore
	matcher             biometricService.Matcher
	liveness            biometricService.LivenessDetector
	fraud               biometricService.FraudAssessor
	bus                 *events.Bus
	logger              *slog.Logger
	confidenceThreshold float64
	livenessThreshold   float64
}

// NewVerifierUseCase creates a VerifierUseCase.
func NewVerifierUseCase(
	templates TemplateStore,
	matcher biometricService.Matcher,
	liveness biometricService.LivenessDetector,
	fraud biometricService.FraudAssessor,
	bus *events.Bus,
	logger *slog.Logger,
	confidenceThreshold float64,
	livenessThreshold float64,
) VerifierUseCase {
	return &verifierUseCase{
		templates:           templates,
		matcher:             matcher,
		liveness:            liveness,
		fraud:               fraud,
		bus:                 bus,
		logger:              logger,
		confidenceThreshold: confidenceThreshold,
		livenessThreshold:   livenessThreshold,
	}
}

// Verify runs the arbitration pipeline.
func (v *verifierUseCase) Verify(
	ctx context.Context,
	subjectID string,
	samples []biometricDomain.Sample,
) (*biometricDomain.VerificationResult, error) {
	if len(samples) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no biometric samples presented")
	}

	userID, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid subject id")
	}

	enrolled, err := v.templates.GetTemplates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(enrolled) == 0 {
		return nil, biometricDomain.ErrNoTemplates
	}

	byModality := make(map[string]*userDomain.BiometricTemplate, len(enrolled))
	for _, tmpl := range enrolled {
		byModality[tmpl.Modality] = tmpl
	}

	// Modality contract is checked for every sample before any scoring.
	for _, sample := range samples {
		if _, ok := byModality[sample.Modality]; !ok {
			return nil, biometricDomain.ErrModalityMismatch
		}
	}

	var (
		matched    []*userDomain.BiometricTemplate
		modalities []biometricDomain.ModalityScore
		sumConf    float64
		minLive    = 1.0
	)

	for _, sample := range samples {
		tmpl := byModality[sample.Modality]

		similarity, quality, err := v.matcher.Match(tmpl.Reference, sample)
		if err != nil {
			return nil, err
		}

		confidence := similarity * quality
		modalities = append(modalities, biometricDomain.ModalityScore{
			Modality:   sample.Modality,
			Similarity: similarity,
			Quality:    quality,
			Confidence: confidence,
		})
		sumConf += confidence
		matched = append(matched, tmpl)

		// The weakest liveness signal governs the whole attempt.
		if live := v.liveness.Detect(sample); live < minLive {
			minLive = live
		}
	}

	fraudScore, spoofingScore := v.fraud.Assess(ctx, subjectID)

	meanConf := sumConf / float64(len(samples))
	overall := clamp01(meanConf * minLive * (1 - fraudScore) * (1 - spoofingScore))

	result := &biometricDomain.VerificationResult{
		SubjectID:      subjectID,
		Valid:          overall > v.confidenceThreshold && minLive > v.livenessThreshold,
		Confidence:     overall,
		MeanConfidence: meanConf,
		Liveness:       minLive,
		FraudScore:     fraudScore,
		SpoofingScore:  spoofingScore,
		SecurityLevel:  securityLevel(meanConf, fraudScore),
		NextAction:     nextAction(overall, fraudScore),
		Modalities:     modalities,
	}

	v.touchTemplates(ctx, matched)
	v.publish(ctx, result)

	return result, nil
}

// touchTemplates updates last-used on every matched template. Best-effort:
// a store hiccup must not turn a completed verification into an error.
func (v *verifierUseCase) touchTemplates(ctx context.Context, templates []*userDomain.BiometricTemplate) {
	now := time.Now().UTC()
	for _, tmpl := range templates {
		if err := v.templates.TouchTemplate(ctx, tmpl.ID, now); err != nil {
			v.logger.Warn("failed to update biometric template last-used",
				slog.String("template_id", tmpl.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// publish emits the verification event for this attempt.
func (v *verifierUseCase) publish(ctx context.Context, result *biometricDomain.VerificationResult) {
	v.bus.Publish(ctx, events.Event{
		Kind:      events.KindBiometricVerified,
		SubjectID: result.SubjectID,
		Payload: map[string]any{
			"valid":          result.Valid,
			"confidence":     result.Confidence,
			"security_level": result.SecurityLevel,
			"next_action":    result.NextAction,
		},
	})
}

// securityLevel maps match strength and fraud onto the discrete level. The
// mean modality confidence is used rather than the combined product, so the
// level reports how well the subject matched while escalation signals ride
// on the next action.
func securityLevel(meanConfidence, fraud float64) string {
	switch {
	case meanConfidence > levelHighConfidence && fraud < levelHighFraud:
		return biometricDomain.SecurityLevelHigh
	case meanConfidence > levelMediumConfidence && fraud < levelMediumFraud:
		return biometricDomain.SecurityLevelMedium
	default:
		return biometricDomain.SecurityLevelLow
	}
}

// nextAction decides the caller's follow-up from the combined confidence and
// the fraud signal. Fraud dominates: a high-fraud attempt goes to manual
// review regardless of match strength.
func nextAction(confidence, fraud float64) string {
	switch {
	case fraud > manualVerificationFraud:
		return biometricDomain.NextActionManualVerification
	case confidence < additionalVerifyBelow:
		return biometricDomain.NextActionAdditionalVerify
	default:
		return biometricDomain.NextActionProceedNormal
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
