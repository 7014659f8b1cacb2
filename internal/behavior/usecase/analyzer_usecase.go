// Package usecase implements the behavioral analyzer pipeline.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	behaviorService "github.com/allisson/authguard/internal/behavior/service"
	"github.com/allisson/authguard/internal/cache"
	"github.com/allisson/authguard/internal/events"
)

// neutralScore is returned when the profile cannot be read or written.
// Risk scoring is fail-permissive: the business path is never blocked by
// cache unavailability, unlike credential verification which is fail-closed.
const neutralScore = 0.5

// AnalyzerUseCase maintains rolling behavior profiles and scores actions.
type AnalyzerUseCase interface {
	// Score appends the action to the subject's profile, evaluates it, and
	// persists the updated profile with a sliding TTL.
	Score(ctx context.Context, subjectID string, action behaviorDomain.Action) (*behaviorDomain.Assessment, error)

	// Record appends the action without publishing analysis events. Used for
	// bookkeeping entries such as rate-limit rejections that feed future
	// scores but are not themselves scored.
	Record(ctx context.Context, subjectID string, action behaviorDomain.Action)

	// CurrentScore returns the last persisted risk score, zero for unknown
	// subjects, or the neutral score when the profile cannot be read.
	CurrentScore(ctx context.Context, subjectID string) float64
}

// analyzerUseCase implements AnalyzerUseCase on the shared cache.
//
// Profile writes are last-writer-wins on the whole value: two concurrent
// scores for one subject can race and drop an action entry. Profiles are
// advisory risk state, not an audit log, so this approximation is accepted
// instead of per-subject locking that would reintroduce contention.
type analyzerUseCase struct {
	scorer     behaviorService.RiskScorer
	cache      cache.Cache
	bus        *events.Bus
	logger     *slog.Logger
	profileTTL time.Duration
	threshold  float64
}

// NewAnalyzerUseCase creates an AnalyzerUseCase.
func NewAnalyzerUseCase(
	scorer behaviorService.RiskScorer,
	cacheClient cache.Cache,
	bus *events.Bus,
	logger *slog.Logger,
	profileTTL time.Duration,
	threshold float64,
) AnalyzerUseCase {
	return &analyzerUseCase{
		scorer:     scorer,
		cache:      cacheClient,
		bus:        bus,
		logger:     logger,
		profileTTL: profileTTL,
		threshold:  threshold,
	}
}

// Score runs the analysis pipeline for one action.
func (a *analyzerUseCase) Score(
	ctx context.Context,
	subjectID string,
	action behaviorDomain.Action,
) (*behaviorDomain.Assessment, error) {
	profile, err := a.loadProfile(ctx, subjectID)
	if err != nil {
		a.logger.Warn("behavior profile unavailable, degrading to neutral score",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return &behaviorDomain.Assessment{Score: neutralScore}, nil
	}

	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}
	profile.Append(action)

	assessment := a.scorer.Evaluate(profile)
	profile.RiskScore = assessment.Score
	profile.UpdatedAt = time.Now().UTC()

	if err := a.saveProfile(ctx, profile); err != nil {
		a.logger.Warn("failed to persist behavior profile",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return &behaviorDomain.Assessment{Score: neutralScore}, nil
	}

	a.bus.Publish(ctx, events.Event{
		Kind:      events.KindBehaviorAnalyzed,
		SubjectID: subjectID,
		Payload: map[string]any{
			"action_kind": action.Kind,
			"risk_score":  assessment.Score,
			"flags":       assessment.Flags,
		},
	})

	if assessment.Suspicious {
		a.bus.Publish(ctx, events.Event{
			Kind:      events.KindHighRiskBehavior,
			SubjectID: subjectID,
			Payload: map[string]any{
				"action_kind": action.Kind,
				"risk_score":  assessment.Score,
				"flags":       assessment.Flags,
			},
		})
	}

	return &assessment, nil
}

// Record appends a bookkeeping action to the profile. Best-effort: failures
// are logged and dropped.
func (a *analyzerUseCase) Record(ctx context.Context, subjectID string, action behaviorDomain.Action) {
	profile, err := a.loadProfile(ctx, subjectID)
	if err != nil {
		a.logger.Warn("failed to load behavior profile for record",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return
	}

	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}
	profile.Append(action)
	profile.UpdatedAt = time.Now().UTC()

	if err := a.saveProfile(ctx, profile); err != nil {
		a.logger.Warn("failed to persist behavior profile for record",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
	}
}

// CurrentScore returns the last persisted risk score for a subject, or zero
// when no profile exists. Cache failures degrade to the neutral score.
func (a *analyzerUseCase) CurrentScore(ctx context.Context, subjectID string) float64 {
	profile, err := a.loadProfile(ctx, subjectID)
	if err != nil {
		return neutralScore
	}
	return profile.RiskScore
}

// loadProfile reads the subject's profile or initializes an empty one.
func (a *analyzerUseCase) loadProfile(ctx context.Context, subjectID string) (*behaviorDomain.Profile, error) {
	data, ok, err := a.cache.Get(ctx, cache.BehaviorKey(subjectID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &behaviorDomain.Profile{SubjectID: subjectID}, nil
	}

	profile := &behaviorDomain.Profile{}
	if err := json.Unmarshal(data, profile); err != nil {
		// A corrupt profile is replaced, not fatal.
		a.logger.Warn("corrupt behavior profile, reinitializing",
			slog.String("subject_id", subjectID),
		)
		return &behaviorDomain.Profile{SubjectID: subjectID}, nil
	}

	return profile, nil
}

// saveProfile persists the profile with the sliding inactivity TTL.
func (a *analyzerUseCase) saveProfile(ctx context.Context, profile *behaviorDomain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return a.cache.Set(ctx, cache.BehaviorKey(profile.SubjectID), data, a.profileTTL)
}
