package domain

import (
	"time"

	"github.com/allisson/authguard/internal/errors"
)

// Authentication errors. All of these are fail-closed: a request presenting a
// credential that trips any of them is rejected.
var (
	// ErrInvalidCredential indicates a bad signature, malformed token, or a
	// token of the wrong kind for the operation.
	ErrInvalidCredential = errors.Wrap(errors.ErrUnauthorized, "invalid credential")

	// ErrExpiredCredential indicates the credential's lifetime has lapsed.
	ErrExpiredCredential = errors.Wrap(errors.ErrUnauthorized, "expired credential")

	// ErrRevokedCredential indicates the credential was explicitly revoked
	// before its natural expiry.
	ErrRevokedCredential = errors.Wrap(errors.ErrUnauthorized, "revoked credential")

	// ErrUnknownSession indicates the credential references a device session
	// that no longer exists in the session mirror.
	ErrUnknownSession = errors.Wrap(errors.ErrUnauthorized, "unknown session")

	// ErrInvalidLogin indicates the email/password pair did not match. It is
	// deliberately indistinguishable for unknown users and wrong passwords.
	ErrInvalidLogin = errors.Wrap(errors.ErrUnauthorized, "invalid email or password")

	// ErrMFARequired indicates the login was correct but a second factor must
	// be verified before credentials are issued.
	ErrMFARequired = errors.Wrap(errors.ErrForbidden, "mfa verification required")

	// ErrLoginRateLimited indicates the subject spent their login budget for
	// the current window.
	ErrLoginRateLimited = errors.Wrap(errors.ErrTooManyRequests, "too many login attempts")
)

// RateLimitedError is ErrLoginRateLimited carrying the cooldown, so the HTTP
// layer can report when the subject may retry.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return ErrLoginRateLimited.Error()
}

func (e *RateLimitedError) Unwrap() error {
	return ErrLoginRateLimited
}
