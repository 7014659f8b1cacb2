// Package domain defines the credential-store entities the engine reads.
package domain

import (
	"time"

	"github.com/google/uuid"

	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	apperrors "github.com/allisson/authguard/internal/errors"
)

// User is a subject record in the credential store. The engine reads it for
// login verification and behavioral baselines; account management lives
// outside this service.
type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string
	UsualLocation *behaviorDomain.Coordinate
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BiometricTemplate is an enrolled biometric reference. The engine never
// mutates the reference data; it only updates LastUsedAt after a
// verification attempt.
type BiometricTemplate struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Modality   string
	Reference  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// Credential store errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.Wrap(apperrors.ErrNotFound, "user not found")

	// ErrTemplateNotFound indicates no biometric template matches.
	ErrTemplateNotFound = apperrors.Wrap(apperrors.ErrNotFound, "biometric template not found")
)
