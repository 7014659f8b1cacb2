package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	"github.com/allisson/authguard/internal/metrics"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Issue records metrics for credential issuance.
func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	subjectID string,
	device authDomain.DeviceInfo,
) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.Issue(ctx, subjectID, device)
	t.record(ctx, "token_issue", start, err)
	return pair, err
}

// Verify records metrics for credential verification.
func (t *tokenUseCaseWithMetrics) Verify(
	ctx context.Context,
	token string,
	kind authDomain.TokenKind,
) (*authDomain.Claims, error) {
	start := time.Now()
	claims, err := t.next.Verify(ctx, token, kind)
	t.record(ctx, "token_verify", start, err)
	return claims, err
}

// Refresh records metrics for credential rotation.
func (t *tokenUseCaseWithMetrics) Refresh(ctx context.Context, token string) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := t.next.Refresh(ctx, token)
	t.record(ctx, "token_refresh", start, err)
	return pair, err
}

// Revoke records metrics for credential revocation.
func (t *tokenUseCaseWithMetrics) Revoke(ctx context.Context, token, subjectID string) error {
	start := time.Now()
	err := t.next.Revoke(ctx, token, subjectID)
	t.record(ctx, "token_revoke", start, err)
	return err
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	t.metrics.RecordOperation(ctx, "auth", operation, status)
	t.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// loginUseCaseWithMetrics decorates LoginUseCase with metrics instrumentation.
type loginUseCaseWithMetrics struct {
	next    LoginUseCase
	metrics metrics.BusinessMetrics
}

// NewLoginUseCaseWithMetrics wraps a LoginUseCase with metrics recording.
func NewLoginUseCaseWithMetrics(useCase LoginUseCase, m metrics.BusinessMetrics) LoginUseCase {
	return &loginUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Login records metrics for login attempts.
func (l *loginUseCaseWithMetrics) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	start := time.Now()
	output, err := l.next.Login(ctx, input)

	status := "success"
	switch {
	case err != nil:
		status = "error"
	case output.MFARequired:
		status = "mfa_required"
	}

	l.metrics.RecordOperation(ctx, "auth", "login", status)
	l.metrics.RecordDuration(ctx, "auth", "login", time.Since(start), status)

	return output, err
}

// CompleteMFA records metrics for stepped-up login completion.
func (l *loginUseCaseWithMetrics) CompleteMFA(
	ctx context.Context,
	input *CompleteMFAInput,
) (*authDomain.TokenPair, error) {
	start := time.Now()
	pair, err := l.next.CompleteMFA(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "auth", "login_mfa_complete", status)
	l.metrics.RecordDuration(ctx, "auth", "login_mfa_complete", time.Since(start), status)

	return pair, err
}
