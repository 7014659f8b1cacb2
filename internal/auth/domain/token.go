package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access and refresh credentials. The two kinds are
// signed with different secrets and carry different lifetimes.
type TokenKind string

const (
	// TokenKindAccess is the short-lived credential presented on API requests.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived credential used to obtain new pairs.
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the signed contents of a session credential. The device and
// session ids bind the credential to the device that performed the login.
type Claims struct {
	DeviceID  string    `json:"did,omitempty"`
	SessionID string    `json:"sid,omitempty"`
	Kind      TokenKind `json:"knd,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of issuing credentials for a session.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	SessionID        string
}

// DeviceInfo describes the device a session is bound to.
type DeviceInfo struct {
	DeviceID  string `json:"device_id"`
	Name      string `json:"name,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// RefreshSession is the cache-mirrored record of a live refresh credential.
// Its presence in the cache is the source of truth for session validity:
// possession of a structurally valid signature is necessary but not
// sufficient. Deleting this record is what makes revocation O(1).
type RefreshSession struct {
	SubjectID string     `json:"subject_id"`
	SessionID string     `json:"session_id"`
	Device    DeviceInfo `json:"device"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  time.Time  `json:"last_used"`
}
