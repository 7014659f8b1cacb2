// Package usecase implements risk-adjusted per-subject rate limiting.
package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	"github.com/allisson/authguard/internal/cache"
	"github.com/allisson/authguard/internal/events"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
)

// riskReductionFactor is how much of the base quota a fully risky subject
// loses: effective = base * (1 - risk * 0.5), so risk 1.0 halves the budget.
const riskReductionFactor = 0.5

// RiskSource reports the subject's current behavioral risk score.
type RiskSource interface {
	CurrentScore(ctx context.Context, subjectID string) float64
}

// BehaviorRecorder feeds rate-limit rejections back into the behavior
// profile without triggering a scoring round.
type BehaviorRecorder interface {
	Record(ctx context.Context, subjectID string, action behaviorDomain.Action)
}

// LimiterUseCase admits or rejects subject actions against sliding quota
// windows shrunk by behavioral risk.
type LimiterUseCase interface {
	Check(ctx context.Context, subjectID, actionKind string) (*ratelimitDomain.Decision, error)
}

// Quotas holds the per-window base budgets for each action kind.
type Quotas struct {
	Login     int
	API       int
	MFA       int
	Biometric int
}

// limiterUseCase implements LimiterUseCase on the shared cache counter.
type limiterUseCase struct {
	cache    cache.Cache
	risk     RiskSource
	recorder BehaviorRecorder
	bus      *events.Bus
	logger   *slog.Logger
	quotas   Quotas
	window   time.Duration
	cooldown time.Duration
}

// NewLimiterUseCase creates a LimiterUseCase.
func NewLimiterUseCase(
	cacheClient cache.Cache,
	risk RiskSource,
	recorder BehaviorRecorder,
	bus *events.Bus,
	logger *slog.Logger,
	quotas Quotas,
	window time.Duration,
	cooldown time.Duration,
) LimiterUseCase {
	return &limiterUseCase{
		cache:    cacheClient,
		risk:     risk,
		recorder: recorder,
		bus:      bus,
		logger:   logger,
		quotas:   quotas,
		window:   window,
		cooldown: cooldown,
	}
}

// Check consumes one unit of the subject's budget for the action kind.
//
// The counter increment is atomic, so concurrent requests cannot both land on
// the last slot of a window. Counter unavailability degrades to the base
// quota without risk adjustment: rate limiting protects capacity, it must
// not become the outage itself.
func (l *limiterUseCase) Check(ctx context.Context, subjectID, actionKind string) (*ratelimitDomain.Decision, error) {
	base := l.baseQuota(actionKind)
	riskScore := l.risk.CurrentScore(ctx, subjectID)
	limit := effectiveLimit(base, riskScore)

	count, err := l.cache.Increment(ctx, cache.RateLimitKey(subjectID, actionKind), l.window)
	if err != nil {
		l.logger.Warn("rate limit counter unavailable, admitting with base quota",
			slog.String("subject_id", subjectID),
			slog.String("action_kind", actionKind),
			slog.Any("error", err),
		)
		return &ratelimitDomain.Decision{
			Allowed:   true,
			Limit:     base,
			Remaining: base,
			RiskScore: riskScore,
		}, nil
	}

	if count > int64(limit) {
		l.reject(ctx, subjectID, actionKind, limit, riskScore)
		return &ratelimitDomain.Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: l.cooldown,
			RiskScore:  riskScore,
		}, nil
	}

	return &ratelimitDomain.Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(count),
		RiskScore: riskScore,
	}, nil
}

// reject records the rejection in the behavior profile and publishes the
// rate-limit event. The recorded action carries a failure marker so repeated
// rejections raise future risk scores.
func (l *limiterUseCase) reject(ctx context.Context, subjectID, actionKind string, limit int, riskScore float64) {
	l.recorder.Record(ctx, subjectID, behaviorDomain.Action{
		Kind:   events.KindRateLimitExceeded,
		Failed: true,
		Context: map[string]any{
			"action_kind": actionKind,
		},
	})

	l.bus.Publish(ctx, events.Event{
		Kind:      events.KindRateLimitExceeded,
		SubjectID: subjectID,
		Payload: map[string]any{
			"action_kind": actionKind,
			"limit":       limit,
			"risk_score":  riskScore,
		},
	})

	l.logger.Info("rate limit exceeded",
		slog.String("subject_id", subjectID),
		slog.String("action_kind", actionKind),
		slog.Int("limit", limit),
		slog.Float64("risk_score", riskScore),
	)
}

// baseQuota maps an action kind to its configured budget.
func (l *limiterUseCase) baseQuota(actionKind string) int {
	switch actionKind {
	case ratelimitDomain.ActionLogin:
		return l.quotas.Login
	case ratelimitDomain.ActionMFA:
		return l.quotas.MFA
	case ratelimitDomain.ActionBiometric:
		return l.quotas.Biometric
	default:
		return l.quotas.API
	}
}

// effectiveLimit shrinks the base quota by risk. Never below one: a subject
// at maximum risk is throttled hard, not locked out entirely.
func effectiveLimit(base int, riskScore float64) int {
	limit := int(math.Round(float64(base) * (1 - riskScore*riskReductionFactor)))
	if limit < 1 {
		limit = 1
	}
	return limit
}
