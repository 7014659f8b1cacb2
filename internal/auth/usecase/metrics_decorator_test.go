package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestTokenUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Verify success", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		claims := &authDomain.Claims{}
		mockNext.On("Verify", ctx, "token", authDomain.TokenKindAccess).Return(claims, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "auth", "token_verify", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "auth", "token_verify", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		got, err := uc.Verify(ctx, "token", authDomain.TokenKindAccess)
		assert.NoError(t, err)
		assert.Equal(t, claims, got)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Revoke error", func(t *testing.T) {
		mockNext := &mockTokenUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewTokenUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("Revoke", ctx, "token", "u1").Return(authDomain.ErrInvalidCredential).Once()
		mockMetrics.On("RecordOperation", ctx, "auth", "token_revoke", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "auth", "token_revoke", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		err := uc.Revoke(ctx, "token", "u1")
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		mockMetrics.AssertExpectations(t)
	})
}

func TestLoginUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Login mfa required", func(t *testing.T) {
		mockNext := &mockLoginUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewLoginUseCaseWithMetrics(mockNext, mockMetrics)

		input := &LoginInput{Email: "jo@example.com"}
		output := &LoginOutput{SubjectID: "u1", MFARequired: true}

		mockNext.On("Login", ctx, input).Return(output, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "auth", "login", "mfa_required").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "auth", "login", mock.AnythingOfType("time.Duration"), "mfa_required").
			Return().
			Once()

		got, err := uc.Login(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, output, got)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("CompleteMFA success", func(t *testing.T) {
		mockNext := &mockLoginUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := NewLoginUseCaseWithMetrics(mockNext, mockMetrics)

		input := &CompleteMFAInput{SubjectID: "u1", Code: "123456"}
		pair := &authDomain.TokenPair{AccessToken: "access"}

		mockNext.On("CompleteMFA", ctx, input).Return(pair, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "auth", "login_mfa_complete", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "auth", "login_mfa_complete", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		got, err := uc.CompleteMFA(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, pair, got)
		mockMetrics.AssertExpectations(t)
	})
}

// mockLoginUseCase mocks LoginUseCase for decorator tests.
type mockLoginUseCase struct {
	mock.Mock
}

func (m *mockLoginUseCase) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginOutput), args.Error(1)
}

func (m *mockLoginUseCase) CompleteMFA(ctx context.Context, input *CompleteMFAInput) (*authDomain.TokenPair, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPair), args.Error(1)
}
