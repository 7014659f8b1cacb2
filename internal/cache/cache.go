// Package cache provides the shared fast-access store used for revocation
// blacklists, device-bound refresh sessions, behavior profiles, rate counters
// and MFA challenges. All durable mutable state of the engine lives behind
// this interface; request handlers themselves stay stateless.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a key-value store with per-key TTL. Implementations must provide
// linearizable per-key operations: Increment in particular must be a single
// atomic operation, never a read-then-write.
type Cache interface {
	// Get returns the value for key. The second return value reports whether
	// the key exists and has not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL. A ttl <= 0 means the key
	// does not expire. Overwriting an existing key resets its TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Increment atomically increments the counter stored under key and
	// returns the post-increment value. The TTL is applied only when the
	// increment creates the key, so a counting window is anchored at its
	// first event.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Close releases any resources owned by the cache.
	Close() error
}

// Key builders for the engine's shared key scheme. The scheme is part of the
// operational contract (dashboards and tooling key off these prefixes), so
// callers must never assemble these strings by hand.

// BlacklistKey is the revocation entry for a credential, keyed by token hash.
func BlacklistKey(tokenHash string) string {
	return "blacklist:" + tokenHash
}

// RefreshSessionKey is the cache-mirrored refresh session for a device.
func RefreshSessionKey(subjectID, deviceID string) string {
	return fmt.Sprintf("refresh:%s:%s", subjectID, deviceID)
}

// BehaviorKey holds a subject's rolling behavior profile.
func BehaviorKey(subjectID string) string {
	return "behavior:" + subjectID
}

// RateLimitKey holds the fixed-window counter for a subject and action kind.
func RateLimitKey(subjectID, actionKind string) string {
	return fmt.Sprintf("ratelimit:%s:%s", subjectID, actionKind)
}

// MFAKey holds a subject's pending MFA challenge.
func MFAKey(subjectID string) string {
	return "mfa:" + subjectID
}

// StepUpKey flags a subject for MFA step-up after high-risk behavior.
func StepUpKey(subjectID string) string {
	return "stepup:" + subjectID
}
