// Package events provides the in-process security event bus. Components
// publish what they observed (risk scores, verifications, rejections) and
// react to each other through subscriptions instead of static coupling.
//
// Delivery is synchronous and best-effort within the process. The bus is not
// a durable queue: a crashed process loses in-flight events, and nothing
// should depend on cross-process delivery. Subscribers run inline with the
// request path, so they must be idempotent and non-blocking, offloading any
// slow work themselves.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event kinds published by the engine.
const (
	KindBehaviorAnalyzed    = "behavior_analyzed"
	KindHighRiskBehavior    = "high_risk_behavior"
	KindRateLimitExceeded   = "rate_limit_exceeded"
	KindBiometricVerified   = "biometric_verified"
	KindMFAChallengeCreated = "mfa_challenge_created"
	KindMFAVerified         = "mfa_verified"
	KindTokenIssued         = "token_issued"
	KindTokenRevoked        = "token_revoked"
)

// Event is an ephemeral security observation. It exists only for the duration
// of dispatch and is never persisted.
type Event struct {
	Kind      string
	SubjectID string
	Payload   map[string]any
	Timestamp time.Time
}

// Handler processes a published event. Errors are logged, not propagated:
// a failing subscriber must not break the publishing request.
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process publish/subscribe channel keyed by event kind.
// Subscriptions are expected to be registered once at startup; publishing is
// safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event kind. Call during startup
// wiring, before the first request is served.
func (b *Bus) Subscribe(kind string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish dispatches the event synchronously to every subscriber of its kind.
// Handler errors are logged and swallowed; a missing timestamp is filled in.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := b.handlers[event.Kind]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Warn("event handler failed",
				slog.String("kind", event.Kind),
				slog.String("subject_id", event.SubjectID),
				slog.Any("error", err),
			)
		}
	}
}
