package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/authguard/internal/auth/domain"
	authService "github.com/allisson/authguard/internal/auth/service"
	"github.com/allisson/authguard/internal/cache"
	apperrors "github.com/allisson/authguard/internal/errors"
	"github.com/allisson/authguard/internal/events"
)

// tokenUseCase implements TokenUseCase on top of the token signer and the
// shared cache. The cache holds only revoked and explicitly tracked sessions,
// both bounded by TTL, so revocation stays O(1) without a server-side list of
// every valid token.
type tokenUseCase struct {
	signer authService.TokenSigner
	cache  cache.Cache
	bus    *events.Bus
	logger *slog.Logger
}

// NewTokenUseCase creates a TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	signer authService.TokenSigner,
	cacheClient cache.Cache,
	bus *events.Bus,
	logger *slog.Logger,
) TokenUseCase {
	return &tokenUseCase{
		signer: signer,
		cache:  cacheClient,
		bus:    bus,
		logger: logger,
	}
}

// Issue creates an access/refresh pair for a new device-bound session.
//
// The refresh session is mirrored into the cache under refresh:<subject>:<device>
// with TTL equal to the refresh token's lifetime. That mirror, not the token
// signature, is the source of truth for session validity.
func (t *tokenUseCase) Issue(
	ctx context.Context,
	subjectID string,
	device authDomain.DeviceInfo,
) (*authDomain.TokenPair, error) {
	sessionID := uuid.Must(uuid.NewV7()).String()

	accessToken, accessExpiresAt, err := t.signer.Sign(
		subjectID, device.DeviceID, sessionID, authDomain.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := t.signer.Sign(
		subjectID, device.DeviceID, sessionID, authDomain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &authDomain.RefreshSession{
		SubjectID: subjectID,
		SessionID: sessionID,
		Device:    device,
		CreatedAt: now,
		LastUsed:  now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal refresh session")
	}

	// Issuance fails if the mirror write fails: a session that cannot be
	// revoked must never come into existence.
	key := cache.RefreshSessionKey(subjectID, device.DeviceID)
	if err := t.cache.Set(ctx, key, data, time.Until(refreshExpiresAt)); err != nil {
		return nil, apperrors.Wrap(err, "failed to mirror refresh session")
	}

	t.bus.Publish(ctx, events.Event{
		Kind:      events.KindTokenIssued,
		SubjectID: subjectID,
		Payload: map[string]any{
			"device_id":  device.DeviceID,
			"session_id": sessionID,
		},
	})

	return &authDomain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		SessionID:        sessionID,
	}, nil
}

// Verify validates a credential of the given kind.
//
// The checks run fail-closed in order: signature and expiry, revocation
// blacklist, then device-session mirror. A cache failure here rejects the
// request; credential validity is never degraded for availability.
func (t *tokenUseCase) Verify(
	ctx context.Context,
	token string,
	kind authDomain.TokenKind,
) (*authDomain.Claims, error) {
	claims, err := t.signer.Parse(token, kind)
	if err != nil {
		return nil, err
	}

	blacklistKey := cache.BlacklistKey(t.signer.HashToken(token))
	_, revoked, err := t.cache.Get(ctx, blacklistKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "revocation check failed")
	}
	if revoked {
		return nil, authDomain.ErrRevokedCredential
	}

	if claims.DeviceID != "" {
		sessionKey := cache.RefreshSessionKey(claims.Subject, claims.DeviceID)
		data, ok, err := t.cache.Get(ctx, sessionKey)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUnavailable, "session check failed")
		}
		if !ok {
			return nil, authDomain.ErrUnknownSession
		}

		if kind == authDomain.TokenKindRefresh {
			t.touchSession(ctx, sessionKey, data, claims)
		}
	}

	return claims, nil
}

// Refresh rotates a refresh credential into a new access/refresh pair.
func (t *tokenUseCase) Refresh(ctx context.Context, token string) (*authDomain.TokenPair, error) {
	claims, err := t.Verify(ctx, token, authDomain.TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	// Carry the mirrored device metadata into the new session.
	device := authDomain.DeviceInfo{DeviceID: claims.DeviceID}
	sessionKey := cache.RefreshSessionKey(claims.Subject, claims.DeviceID)
	if data, ok, err := t.cache.Get(ctx, sessionKey); err == nil && ok {
		var session authDomain.RefreshSession
		if err := json.Unmarshal(data, &session); err == nil {
			device = session.Device
		}
	}

	if err := t.Revoke(ctx, token, claims.Subject); err != nil {
		return nil, err
	}

	return t.Issue(ctx, claims.Subject, device)
}

// Revoke blacklists a credential for its remaining lifetime and tears down
// the mirrored device session.
//
// The token is decoded without re-verifying the signature: revocation must
// work for tokens whose session was already torn down elsewhere. Expired
// tokens are skipped entirely, which keeps blacklist growth bounded by token
// lifetime. Revoking twice is a no-op the second time.
func (t *tokenUseCase) Revoke(ctx context.Context, token, subjectID string) error {
	claims, err := t.signer.Decode(token)
	if err != nil {
		return err
	}

	if claims.Subject != "" {
		subjectID = claims.Subject
	}

	if claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining > 0 {
			key := cache.BlacklistKey(t.signer.HashToken(token))
			if err := t.cache.Set(ctx, key, []byte("revoked"), remaining); err != nil {
				return apperrors.Wrap(err, "failed to write revocation entry")
			}
		}
	}

	if claims.DeviceID != "" {
		key := cache.RefreshSessionKey(subjectID, claims.DeviceID)
		if err := t.cache.Delete(ctx, key); err != nil {
			return apperrors.Wrap(err, "failed to delete refresh session")
		}
	}

	t.bus.Publish(ctx, events.Event{
		Kind:      events.KindTokenRevoked,
		SubjectID: subjectID,
		Payload: map[string]any{
			"device_id":  claims.DeviceID,
			"session_id": claims.SessionID,
		},
	})

	return nil
}

// touchSession refreshes the mirror's last-used timestamp, keeping the TTL at
// the credential's remaining lifetime. Best-effort: a failed touch never
// blocks verification.
func (t *tokenUseCase) touchSession(
	ctx context.Context,
	sessionKey string,
	data []byte,
	claims *authDomain.Claims,
) {
	var session authDomain.RefreshSession
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}

	session.LastUsed = time.Now().UTC()
	updated, err := json.Marshal(&session)
	if err != nil {
		return
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return
	}

	if err := t.cache.Set(ctx, sessionKey, updated, ttl); err != nil {
		t.logger.Debug("failed to touch refresh session",
			slog.String("subject_id", session.SubjectID),
			slog.Any("error", err),
		)
	}
}
