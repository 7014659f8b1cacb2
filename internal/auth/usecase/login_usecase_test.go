package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	mfaDomain "github.com/allisson/authguard/internal/mfa/domain"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
	userDomain "github.com/allisson/authguard/internal/user/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

type mockPasswordVerifier struct {
	mock.Mock
}

func (m *mockPasswordVerifier) CompareSecret(plain, hashed string) bool {
	args := m.Called(plain, hashed)
	return args.Bool(0)
}

type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) Issue(ctx context.Context, subjectID string, device authDomain.DeviceInfo) (*authDomain.TokenPair, error) {
	args := m.Called(ctx, subjectID, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPair), args.Error(1)
}

func (m *mockTokenUseCase) Verify(ctx context.Context, token string, kind authDomain.TokenKind) (*authDomain.Claims, error) {
	args := m.Called(ctx, token, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Claims), args.Error(1)
}

func (m *mockTokenUseCase) Refresh(ctx context.Context, token string) (*authDomain.TokenPair, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPair), args.Error(1)
}

func (m *mockTokenUseCase) Revoke(ctx context.Context, token, subjectID string) error {
	args := m.Called(ctx, token, subjectID)
	return args.Error(0)
}

type mockRiskAnalyzer struct {
	mock.Mock
}

func (m *mockRiskAnalyzer) Score(ctx context.Context, subjectID string, action behaviorDomain.Action) (*behaviorDomain.Assessment, error) {
	args := m.Called(ctx, subjectID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*behaviorDomain.Assessment), args.Error(1)
}

type mockRateBudget struct {
	mock.Mock
}

func (m *mockRateBudget) Check(ctx context.Context, subjectID, actionKind string) (*ratelimitDomain.Decision, error) {
	args := m.Called(ctx, subjectID, actionKind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratelimitDomain.Decision), args.Error(1)
}

type mockChallengeManager struct {
	mock.Mock
}

func (m *mockChallengeManager) Generate(ctx context.Context, subjectID, method string) error {
	args := m.Called(ctx, subjectID, method)
	return args.Error(0)
}

func (m *mockChallengeManager) Verify(ctx context.Context, subjectID, code string) error {
	args := m.Called(ctx, subjectID, code)
	return args.Error(0)
}

type loginFixture struct {
	login      LoginUseCase
	users      *mockUserRepository
	passwords  *mockPasswordVerifier
	tokens     *mockTokenUseCase
	risk       *mockRiskAnalyzer
	rates      *mockRateBudget
	challenges *mockChallengeManager
	cache      *cache.Memory
	user       *userDomain.User
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	memoryCache := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = memoryCache.Close() })

	f := &loginFixture{
		users:      &mockUserRepository{},
		passwords:  &mockPasswordVerifier{},
		tokens:     &mockTokenUseCase{},
		risk:       &mockRiskAnalyzer{},
		rates:      &mockRateBudget{},
		challenges: &mockChallengeManager{},
		cache:      memoryCache,
		user: &userDomain.User{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "jo@example.com",
			PasswordHash: "argon2-hash",
		},
	}

	f.login = NewLoginUseCase(
		f.users, f.passwords, f.tokens, f.risk, f.rates, f.challenges, memoryCache, logger,
	)

	return f
}

func allowedDecision() *ratelimitDomain.Decision {
	return &ratelimitDomain.Decision{Allowed: true, Limit: 5, Remaining: 4}
}

func loginInput() *LoginInput {
	return &LoginInput{
		Email:    "jo@example.com",
		Password: "pa55word",
		Device:   authDomain.DeviceInfo{DeviceID: "device-1", Name: "laptop"},
		Origin:   "203.0.113.10",
	}
}

func TestLoginUseCase_Success(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).Return(allowedDecision(), nil)
	f.passwords.On("CompareSecret", "pa55word", "argon2-hash").Return(true)
	f.risk.On("Score", ctx, subjectID, mock.AnythingOfType("domain.Action")).
		Return(&behaviorDomain.Assessment{Score: 0.2}, nil)

	pair := &authDomain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	f.tokens.On("Issue", ctx, subjectID, mock.AnythingOfType("domain.DeviceInfo")).Return(pair, nil)

	output, err := f.login.Login(ctx, loginInput())
	require.NoError(t, err)
	assert.Equal(t, subjectID, output.SubjectID)
	assert.False(t, output.MFARequired)
	assert.Equal(t, pair, output.Tokens)

	f.challenges.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUseCase_UnknownUser(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(nil, userDomain.ErrUserNotFound)

	_, err := f.login.Login(ctx, loginInput())
	assert.ErrorIs(t, err, authDomain.ErrInvalidLogin)

	f.rates.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUseCase_WrongPasswordScoresFailedAction(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).Return(allowedDecision(), nil)
	f.passwords.On("CompareSecret", "pa55word", "argon2-hash").Return(false)
	f.risk.On("Score", ctx, subjectID, mock.MatchedBy(func(action behaviorDomain.Action) bool {
		return action.Failed && action.Kind == ratelimitDomain.ActionLogin
	})).Return(&behaviorDomain.Assessment{Score: 0.3}, nil)

	_, err := f.login.Login(ctx, loginInput())
	assert.ErrorIs(t, err, authDomain.ErrInvalidLogin)

	f.risk.AssertExpectations(t)
	f.tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUseCase_RateLimited(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).
		Return(&ratelimitDomain.Decision{Allowed: false, RetryAfter: 300 * time.Second}, nil)

	_, err := f.login.Login(ctx, loginInput())
	assert.ErrorIs(t, err, authDomain.ErrLoginRateLimited)
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)

	// The decision's cooldown travels with the error.
	var rateLimited *authDomain.RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 300*time.Second, rateLimited.RetryAfter)

	f.passwords.AssertNotCalled(t, "CompareSecret", mock.Anything, mock.Anything)
}

func TestLoginUseCase_SuspiciousScoreStepsUp(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).Return(allowedDecision(), nil)
	f.passwords.On("CompareSecret", "pa55word", "argon2-hash").Return(true)
	f.risk.On("Score", ctx, subjectID, mock.AnythingOfType("domain.Action")).
		Return(&behaviorDomain.Assessment{Score: 0.95, Suspicious: true}, nil)
	f.challenges.On("Generate", ctx, subjectID, mfaDomain.MethodEmail).Return(nil)

	output, err := f.login.Login(ctx, loginInput())
	require.NoError(t, err)
	assert.True(t, output.MFARequired)
	assert.Nil(t, output.Tokens)

	f.challenges.AssertExpectations(t)
	f.tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUseCase_StepUpFlagForcesMFA(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	// A high-risk event subscriber flagged the subject earlier.
	require.NoError(t, f.cache.Set(ctx, cache.StepUpKey(subjectID), []byte("1"), time.Minute))

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).Return(allowedDecision(), nil)
	f.passwords.On("CompareSecret", "pa55word", "argon2-hash").Return(true)
	f.risk.On("Score", ctx, subjectID, mock.AnythingOfType("domain.Action")).
		Return(&behaviorDomain.Assessment{Score: 0.1}, nil)
	f.challenges.On("Generate", ctx, subjectID, mfaDomain.MethodEmail).Return(nil)

	output, err := f.login.Login(ctx, loginInput())
	require.NoError(t, err)
	assert.True(t, output.MFARequired, "low score does not override a pending step-up flag")
}

func TestLoginUseCase_DistantFromUsualLocationStepsUp(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()

	f.user.UsualLocation = &behaviorDomain.Coordinate{Lat: 40.7128, Lon: -74.0060} // New York
	subjectID := f.user.ID.String()

	f.users.On("GetByEmail", ctx, "jo@example.com").Return(f.user, nil)
	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionLogin).Return(allowedDecision(), nil)
	f.passwords.On("CompareSecret", "pa55word", "argon2-hash").Return(true)
	f.risk.On("Score", ctx, subjectID, mock.AnythingOfType("domain.Action")).
		Return(&behaviorDomain.Assessment{Score: 0.2}, nil)
	f.challenges.On("Generate", ctx, subjectID, mfaDomain.MethodEmail).Return(nil)

	input := loginInput()
	input.Location = &behaviorDomain.Coordinate{Lat: 51.5074, Lon: -0.1278} // London

	output, err := f.login.Login(ctx, input)
	require.NoError(t, err)
	assert.True(t, output.MFARequired)
}

func TestLoginUseCase_CompleteMFA(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	// Pending step-up flag is cleared by a completed challenge.
	require.NoError(t, f.cache.Set(ctx, cache.StepUpKey(subjectID), []byte("1"), time.Minute))

	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionMFA).Return(allowedDecision(), nil)
	f.challenges.On("Verify", ctx, subjectID, "123456").Return(nil)

	pair := &authDomain.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	f.tokens.On("Issue", ctx, subjectID, mock.AnythingOfType("domain.DeviceInfo")).Return(pair, nil)

	got, err := f.login.CompleteMFA(ctx, &CompleteMFAInput{
		SubjectID: subjectID,
		Code:      "123456",
		Device:    authDomain.DeviceInfo{DeviceID: "device-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	_, ok, err := f.cache.Get(ctx, cache.StepUpKey(subjectID))
	require.NoError(t, err)
	assert.False(t, ok, "step-up flag cleared")
}

func TestLoginUseCase_CompleteMFARateLimited(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionMFA).
		Return(&ratelimitDomain.Decision{Allowed: false, RetryAfter: 120 * time.Second}, nil)

	_, err := f.login.CompleteMFA(ctx, &CompleteMFAInput{SubjectID: subjectID, Code: "123456"})
	assert.ErrorIs(t, err, authDomain.ErrLoginRateLimited)

	var rateLimited *authDomain.RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 120*time.Second, rateLimited.RetryAfter)

	f.challenges.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUseCase_CompleteMFAWrongCode(t *testing.T) {
	f := newLoginFixture(t)
	ctx := context.Background()
	subjectID := f.user.ID.String()

	f.rates.On("Check", ctx, subjectID, ratelimitDomain.ActionMFA).Return(allowedDecision(), nil)
	f.challenges.On("Verify", ctx, subjectID, "000000").Return(mfaDomain.ErrInvalidCode)

	_, err := f.login.CompleteMFA(ctx, &CompleteMFAInput{SubjectID: subjectID, Code: "000000"})
	assert.ErrorIs(t, err, mfaDomain.ErrInvalidCode)

	f.tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}
