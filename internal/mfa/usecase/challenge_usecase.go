// Package usecase implements the MFA challenge lifecycle.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/events"
	mfaDomain "github.com/allisson/authguard/internal/mfa/domain"
	mfaService "github.com/allisson/authguard/internal/mfa/service"
)

// Sender delivers a challenge code to the subject over the chosen method.
type Sender interface {
	Send(ctx context.Context, subjectID, method, code string) error
}

// ChallengeUseCase issues and verifies second-factor challenges.
type ChallengeUseCase interface {
	// Generate creates a challenge, stores its hash with the code TTL, and
	// hands the plaintext code to the sender exactly once.
	Generate(ctx context.Context, subjectID, method string) error

	// Verify checks a submitted code against the pending challenge. A correct
	// code consumes the challenge; a wrong one burns an attempt. Once the
	// attempt budget is spent, the next submission is rejected outright and
	// the challenge destroyed, regardless of the code it carries.
	Verify(ctx context.Context, subjectID, code string) error
}

// challengeUseCase implements ChallengeUseCase on the shared cache.
type challengeUseCase struct {
	codes       mfaService.CodeService
	sender      Sender
	cache       cache.Cache
	bus         *events.Bus
	logger      *slog.Logger
	codeTTL     time.Duration
	maxAttempts int
}

// NewChallengeUseCase creates a ChallengeUseCase.
func NewChallengeUseCase(
	codes mfaService.CodeService,
	sender Sender,
	cacheClient cache.Cache,
	bus *events.Bus,
	logger *slog.Logger,
	codeTTL time.Duration,
	maxAttempts int,
) ChallengeUseCase {
	return &challengeUseCase{
		codes:       codes,
		sender:      sender,
		cache:       cacheClient,
		bus:         bus,
		logger:      logger,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
	}
}

// Generate issues a new challenge. A pending challenge for the subject is
// replaced, invalidating its code.
func (c *challengeUseCase) Generate(ctx context.Context, subjectID, method string) error {
	code, codeHash, err := c.codes.Generate()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	challenge := &mfaDomain.Challenge{
		SubjectID: subjectID,
		CodeHash:  codeHash,
		Method:    method,
		ExpiresAt: now.Add(c.codeTTL),
		CreatedAt: now,
	}

	if err := c.saveChallenge(ctx, challenge); err != nil {
		return apperrors.Wrap(err, "failed to store mfa challenge")
	}

	// The code crosses to the sender exactly once and is never logged or
	// stored in plaintext.
	if err := c.sender.Send(ctx, subjectID, method, code); err != nil {
		// An undeliverable challenge is unusable: remove it so the subject is
		// not locked behind a code they never received.
		if deleteErr := c.cache.Delete(ctx, cache.MFAKey(subjectID)); deleteErr != nil {
			c.logger.Warn("failed to remove undeliverable mfa challenge",
				slog.String("subject_id", subjectID),
				slog.Any("error", deleteErr),
			)
		}
		return apperrors.Wrap(err, "failed to deliver mfa challenge")
	}

	c.bus.Publish(ctx, events.Event{
		Kind:      events.KindMFAChallengeCreated,
		SubjectID: subjectID,
		Payload: map[string]any{
			"method": method,
		},
	})

	c.logger.Info("mfa challenge created",
		slog.String("subject_id", subjectID),
		slog.String("method", method),
	)

	return nil
}

// Verify checks a submitted code.
func (c *challengeUseCase) Verify(ctx context.Context, subjectID, code string) error {
	challenge, err := c.loadChallenge(ctx, subjectID)
	if err != nil {
		return err
	}

	// An exhausted budget rejects the submission before the code is even
	// compared, and destroys the challenge.
	if challenge.Attempts >= c.maxAttempts {
		if err := c.cache.Delete(ctx, cache.MFAKey(subjectID)); err != nil {
			c.logger.Warn("failed to remove exhausted mfa challenge",
				slog.String("subject_id", subjectID),
				slog.Any("error", err),
			)
		}
		return mfaDomain.ErrTooManyAttempts
	}

	if !c.codes.Compare(code, challenge.CodeHash) {
		// Persist the burned attempt with the original deadline. The final
		// attempt still reports a mismatch; exhaustion is enforced by the
		// budget gate above on the next submission.
		challenge.Attempts++
		if err := c.saveChallenge(ctx, challenge); err != nil {
			return apperrors.Wrap(err, "failed to update mfa challenge")
		}
		return mfaDomain.ErrInvalidCode
	}

	if err := c.cache.Delete(ctx, cache.MFAKey(subjectID)); err != nil {
		return apperrors.Wrap(err, "failed to consume mfa challenge")
	}

	c.bus.Publish(ctx, events.Event{
		Kind:      events.KindMFAVerified,
		SubjectID: subjectID,
		Payload: map[string]any{
			"method": challenge.Method,
		},
	})

	c.logger.Info("mfa challenge verified", slog.String("subject_id", subjectID))

	return nil
}

// loadChallenge reads the pending challenge. A missing, expired, or corrupt
// record is reported as expired so callers cannot probe challenge state.
func (c *challengeUseCase) loadChallenge(ctx context.Context, subjectID string) (*mfaDomain.Challenge, error) {
	data, ok, err := c.cache.Get(ctx, cache.MFAKey(subjectID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read mfa challenge")
	}
	if !ok {
		return nil, mfaDomain.ErrChallengeExpired
	}

	challenge := &mfaDomain.Challenge{}
	if err := json.Unmarshal(data, challenge); err != nil {
		return nil, mfaDomain.ErrChallengeExpired
	}

	if challenge.Expired(time.Now().UTC()) {
		return nil, mfaDomain.ErrChallengeExpired
	}

	return challenge, nil
}

// saveChallenge stores the challenge for its remaining lifetime.
func (c *challengeUseCase) saveChallenge(ctx context.Context, challenge *mfaDomain.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return err
	}

	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return mfaDomain.ErrChallengeExpired
	}

	return c.cache.Set(ctx, cache.MFAKey(challenge.SubjectID), data, ttl)
}
