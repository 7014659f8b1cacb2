// Package usecase implements business logic orchestration for the
// authentication engine.
package usecase

import (
	"context"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// TokenUseCase manages the lifecycle of session credentials.
type TokenUseCase interface {
	// Issue creates an access/refresh pair bound to a device and mirrors the
	// refresh session into the cache for revocation and consistency checks.
	Issue(ctx context.Context, subjectID string, device authDomain.DeviceInfo) (*authDomain.TokenPair, error)

	// Verify validates a credential of the given kind. Fail-closed: any
	// signature, expiry, revocation, or session-mirror defect rejects.
	Verify(ctx context.Context, token string, kind authDomain.TokenKind) (*authDomain.Claims, error)

	// Refresh rotates a refresh credential: the presented token is revoked
	// and a fresh pair is issued for the same subject and device.
	Refresh(ctx context.Context, token string) (*authDomain.TokenPair, error)

	// Revoke blacklists a credential for its remaining lifetime and deletes
	// the mirrored device session. Idempotent.
	Revoke(ctx context.Context, token, subjectID string) error
}

// LoginUseCase authenticates subjects against the credential store and
// escalates to a second factor when behavioral risk demands it.
type LoginUseCase interface {
	// Login verifies the email/password pair, scores the attempt, and either
	// issues tokens or requests MFA step-up.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// CompleteMFA finishes a stepped-up login by verifying the challenge
	// code and issuing tokens.
	CompleteMFA(ctx context.Context, input *CompleteMFAInput) (*authDomain.TokenPair, error)
}

// LoginInput carries a login attempt.
type LoginInput struct {
	Email    string
	Password string
	Device   authDomain.DeviceInfo
	Origin   string
	Location *behaviorDomain.Coordinate
}

// LoginOutput is the result of a login attempt. Tokens is nil when
// MFARequired is set; the caller must complete the challenge first.
type LoginOutput struct {
	SubjectID   string
	Tokens      *authDomain.TokenPair
	MFARequired bool
}

// CompleteMFAInput carries the second step of a stepped-up login.
type CompleteMFAInput struct {
	SubjectID string
	Code      string
	Device    authDomain.DeviceInfo
}

// UserRepository is the credential-store read contract the login flow needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
}

// PasswordVerifier compares a plaintext password against a stored hash.
type PasswordVerifier interface {
	CompareSecret(plain, hashed string) bool
}

// RiskAnalyzer scores an action against the subject's behavior profile.
type RiskAnalyzer interface {
	Score(ctx context.Context, subjectID string, action behaviorDomain.Action) (*behaviorDomain.Assessment, error)
}

// RateBudget admits or rejects an action against the subject's rate budget.
type RateBudget interface {
	Check(ctx context.Context, subjectID, actionKind string) (*ratelimitDomain.Decision, error)
}

// ChallengeManager issues and verifies MFA challenges during stepped-up logins.
type ChallengeManager interface {
	Generate(ctx context.Context, subjectID, method string) error
	Verify(ctx context.Context, subjectID, code string) error
}
