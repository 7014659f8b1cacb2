package usecase

import (
	"context"
	"log/slog"
	"time"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	mfaDomain "github.com/allisson/authguard/internal/mfa/domain"
	ratelimitDomain "github.com/allisson/authguard/internal/ratelimit/domain"
)

// usualLocationKilometers is how far from the stored home location a login
// may originate before it forces a step-up, independent of the profile-based
// distance feature.
const usualLocationKilometers = 500.0

// loginUseCase implements LoginUseCase.
type loginUseCase struct {
	users      UserRepository
	passwords  PasswordVerifier
	tokens     TokenUseCase
	risk       RiskAnalyzer
	rates      RateBudget
	challenges ChallengeManager
	cache      cache.Cache
	logger     *slog.Logger
}

// NewLoginUseCase creates a LoginUseCase.
func NewLoginUseCase(
	users UserRepository,
	passwords PasswordVerifier,
	tokens TokenUseCase,
	risk RiskAnalyzer,
	rates RateBudget,
	challenges ChallengeManager,
	cacheClient cache.Cache,
	logger *slog.Logger,
) LoginUseCase {
	return &loginUseCase{
		users:      users,
		passwords:  passwords,
		tokens:     tokens,
		risk:       risk,
		rates:      rates,
		challenges: challenges,
		cache:      cacheClient,
		logger:     logger,
	}
}

// Login authenticates an email/password pair with risk-adjusted throttling
// and behavioral step-up.
func (l *loginUseCase) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := l.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			// Indistinguishable from a wrong password: existence of accounts
			// is not leaked.
			return nil, authDomain.ErrInvalidLogin
		}
		return nil, err
	}

	subjectID := user.ID.String()

	decision, err := l.rates.Check(ctx, subjectID, ratelimitDomain.ActionLogin)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &authDomain.RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	action := behaviorDomain.Action{
		Kind:      ratelimitDomain.ActionLogin,
		DeviceID:  input.Device.DeviceID,
		Origin:    input.Origin,
		Location:  input.Location,
		Timestamp: time.Now().UTC(),
	}

	if !l.passwords.CompareSecret(input.Password, user.PasswordHash) {
		action.Failed = true
		if _, scoreErr := l.risk.Score(ctx, subjectID, action); scoreErr != nil {
			l.logger.Warn("failed to score failed login",
				slog.String("subject_id", subjectID),
				slog.Any("error", scoreErr),
			)
		}
		return nil, authDomain.ErrInvalidLogin
	}

	farFromUsual := l.distantFromUsual(user.UsualLocation, input.Location)
	if farFromUsual {
		action.Context = map[string]any{"distant_from_usual_location": true}
	}

	assessment, err := l.risk.Score(ctx, subjectID, action)
	if err != nil {
		return nil, err
	}

	if assessment.Suspicious || farFromUsual || l.stepUpRequired(ctx, subjectID) {
		if err := l.challenges.Generate(ctx, subjectID, mfaDomain.MethodEmail); err != nil {
			return nil, err
		}
		l.logger.Info("login stepped up to mfa",
			slog.String("subject_id", subjectID),
			slog.Float64("risk_score", assessment.Score),
			slog.Bool("distant_from_usual", farFromUsual),
		)
		return &LoginOutput{SubjectID: subjectID, MFARequired: true}, nil
	}

	tokens, err := l.tokens.Issue(ctx, subjectID, input.Device)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{SubjectID: subjectID, Tokens: tokens}, nil
}

// CompleteMFA finishes a stepped-up login.
func (l *loginUseCase) CompleteMFA(ctx context.Context, input *CompleteMFAInput) (*authDomain.TokenPair, error) {
	decision, err := l.rates.Check(ctx, input.SubjectID, ratelimitDomain.ActionMFA)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &authDomain.RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	if err := l.challenges.Verify(ctx, input.SubjectID, input.Code); err != nil {
		return nil, err
	}

	// A completed challenge satisfies any pending step-up demand.
	if err := l.cache.Delete(ctx, cache.StepUpKey(input.SubjectID)); err != nil {
		l.logger.Warn("failed to clear step-up flag",
			slog.String("subject_id", input.SubjectID),
			slog.Any("error", err),
		)
	}

	return l.tokens.Issue(ctx, input.SubjectID, input.Device)
}

// stepUpRequired reports whether a high-risk event subscriber has flagged
// the subject for mandatory MFA. A cache failure does not force a step-up:
// the flag is an escalation hint, not a credential check.
func (l *loginUseCase) stepUpRequired(ctx context.Context, subjectID string) bool {
	_, ok, err := l.cache.Get(ctx, cache.StepUpKey(subjectID))
	if err != nil {
		l.logger.Warn("failed to read step-up flag",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return false
	}
	return ok
}

// distantFromUsual reports whether the presented location is far from the
// subject's stored home location. Either side missing means no signal.
func (l *loginUseCase) distantFromUsual(usual, presented *behaviorDomain.Coordinate) bool {
	if usual == nil || presented == nil {
		return false
	}
	return presented.Distance(*usual) > usualLocationKilometers
}
