// Package domain defines the MFA challenge model.
package domain

import (
	"time"

	apperrors "github.com/allisson/authguard/internal/errors"
)

// Delivery methods for challenge codes.
const (
	MethodEmail = "email"
	MethodSMS   = "sms"
	MethodTOTP  = "totp"
)

// MFA challenge errors.
var (
	// ErrChallengeExpired covers both a missing and an expired challenge: a
	// caller cannot distinguish the two, and must not be able to probe for
	// pending challenges.
	ErrChallengeExpired = apperrors.Wrap(apperrors.ErrUnauthorized, "mfa challenge expired")

	// ErrInvalidCode is returned for a code mismatch while attempts remain.
	ErrInvalidCode = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid mfa code")

	// ErrTooManyAttempts is returned once the attempt budget is spent. The
	// challenge is destroyed; the subject must request a fresh one.
	ErrTooManyAttempts = apperrors.Wrap(apperrors.ErrTooManyRequests, "too many mfa attempts")
)

// Challenge is a pending second-factor verification. Only the code hash is
// stored; the plaintext code exists in memory just long enough to hand to
// the sender.
type Challenge struct {
	SubjectID string    `json:"subject_id"`
	CodeHash  string    `json:"code_hash"`
	Method    string    `json:"method"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its deadline.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
