package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/events"
	mfaDomain "github.com/allisson/authguard/internal/mfa/domain"
	mfaService "github.com/allisson/authguard/internal/mfa/service"
)

// captureSender records sent codes so tests can replay them.
type captureSender struct {
	mu    sync.Mutex
	sent  []sentCode
	fail  bool
	count int
}

type sentCode struct {
	subjectID string
	method    string
	code      string
}

func (s *captureSender) Send(_ context.Context, subjectID, method, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.fail {
		return apperrors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentCode{subjectID: subjectID, method: method, code: code})
	return nil
}

func (s *captureSender) last() sentCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

type challengeFixture struct {
	challenges ChallengeUseCase
	sender     *captureSender
	cache      *cache.Memory
	bus        *events.Bus
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	memoryCache := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = memoryCache.Close() })

	sender := &captureSender{}
	bus := events.NewBus(logger)

	challenges := NewChallengeUseCase(
		mfaService.NewCodeService(),
		sender,
		memoryCache,
		bus,
		logger,
		5*time.Minute,
		3,
	)

	return &challengeFixture{challenges: challenges, sender: sender, cache: memoryCache, bus: bus}
}

func TestChallengeUseCase_GenerateAndVerify(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	recorder := &eventRecorder{}
	f.bus.Subscribe(events.KindMFAChallengeCreated, recorder.handler)
	f.bus.Subscribe(events.KindMFAVerified, recorder.handler)

	require.NoError(t, f.challenges.Generate(ctx, "u1", mfaDomain.MethodEmail))

	assert.Equal(t, 1, f.sender.count, "the code is delivered exactly once")
	sent := f.sender.last()
	assert.Equal(t, "u1", sent.subjectID)
	assert.Equal(t, mfaDomain.MethodEmail, sent.method)
	assert.Regexp(t, `^\d{6}$`, sent.code)

	created := recorder.byKind(events.KindMFAChallengeCreated)
	require.Len(t, created, 1)
	assert.Equal(t, mfaDomain.MethodEmail, created[0].Payload["method"])

	// Only the hash is at rest.
	data, ok, err := f.cache.Get(ctx, cache.MFAKey("u1"))
	require.NoError(t, err)
	require.True(t, ok)
	challenge := &mfaDomain.Challenge{}
	require.NoError(t, json.Unmarshal(data, challenge))
	assert.NotContains(t, challenge.CodeHash, sent.code)

	require.NoError(t, f.challenges.Verify(ctx, "u1", sent.code))

	verified := recorder.byKind(events.KindMFAVerified)
	require.Len(t, verified, 1)

	// The challenge is consumed.
	err = f.challenges.Verify(ctx, "u1", sent.code)
	assert.ErrorIs(t, err, mfaDomain.ErrChallengeExpired)
}

func TestChallengeUseCase_VerifyWithoutChallenge(t *testing.T) {
	f := newChallengeFixture(t)

	err := f.challenges.Verify(context.Background(), "u1", "123456")
	assert.ErrorIs(t, err, mfaDomain.ErrChallengeExpired)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestChallengeUseCase_WrongCodeBurnsAttempt(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	require.NoError(t, f.challenges.Generate(ctx, "u1", mfaDomain.MethodSMS))
	code := f.sender.last().code

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	// Every wrong code up to the cap reports a mismatch, including the last.
	for i := 0; i < 3; i++ {
		err := f.challenges.Verify(ctx, "u1", wrong)
		assert.ErrorIs(t, err, mfaDomain.ErrInvalidCode)
	}

	// The spent budget now rejects even the correct code and destroys the
	// challenge.
	err := f.challenges.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, mfaDomain.ErrTooManyAttempts)
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)

	_, ok, getErr := f.cache.Get(ctx, cache.MFAKey("u1"))
	require.NoError(t, getErr)
	assert.False(t, ok, "exhausted challenge is removed")

	// With the record gone, further submissions report an expired challenge.
	err = f.challenges.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, mfaDomain.ErrChallengeExpired)
}

func TestChallengeUseCase_CorrectCodeAfterFailedAttempt(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	require.NoError(t, f.challenges.Generate(ctx, "u1", mfaDomain.MethodEmail))
	code := f.sender.last().code

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	require.ErrorIs(t, f.challenges.Verify(ctx, "u1", wrong), mfaDomain.ErrInvalidCode)
	assert.NoError(t, f.challenges.Verify(ctx, "u1", code), "attempts remain, correct code passes")
}

func TestChallengeUseCase_ExpiredChallenge(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	memoryCache := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = memoryCache.Close() })

	sender := &captureSender{}
	challenges := NewChallengeUseCase(
		mfaService.NewCodeService(),
		sender,
		memoryCache,
		events.NewBus(logger),
		logger,
		30*time.Millisecond,
		3,
	)
	ctx := context.Background()

	require.NoError(t, challenges.Generate(ctx, "u1", mfaDomain.MethodEmail))
	code := sender.last().code

	time.Sleep(50 * time.Millisecond)

	err := challenges.Verify(ctx, "u1", code)
	assert.ErrorIs(t, err, mfaDomain.ErrChallengeExpired)
}

func TestChallengeUseCase_RegenerateReplacesChallenge(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	require.NoError(t, f.challenges.Generate(ctx, "u1", mfaDomain.MethodEmail))
	first := f.sender.last().code

	require.NoError(t, f.challenges.Generate(ctx, "u1", mfaDomain.MethodEmail))
	second := f.sender.last().code

	if first != second {
		err := f.challenges.Verify(ctx, "u1", first)
		assert.ErrorIs(t, err, mfaDomain.ErrInvalidCode, "replaced code no longer verifies")
	}
	assert.NoError(t, f.challenges.Verify(ctx, "u1", second))
}

func TestChallengeUseCase_UndeliverableChallengeRemoved(t *testing.T) {
	f := newChallengeFixture(t)
	ctx := context.Background()

	f.sender.fail = true

	err := f.challenges.Generate(ctx, "u1", mfaDomain.MethodEmail)
	require.Error(t, err)

	_, ok, getErr := f.cache.Get(ctx, cache.MFAKey("u1"))
	require.NoError(t, getErr)
	assert.False(t, ok, "no challenge is left behind")
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handler(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) byKind(kind string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []events.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
