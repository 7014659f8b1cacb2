// Package repository provides database persistence for subjects and their
// enrolled biometric templates.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// Repository is the full persistence contract implemented by both database
// flavors. Use case packages depend on their own narrower interfaces; this
// one exists for wiring.
type Repository interface {
	Create(ctx context.Context, user *userDomain.User) error
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*userDomain.User, error)

	CreateTemplate(ctx context.Context, template *userDomain.BiometricTemplate) error
	GetTemplates(ctx context.Context, userID uuid.UUID) ([]*userDomain.BiometricTemplate, error)
	TouchTemplate(ctx context.Context, templateID uuid.UUID, usedAt time.Time) error
}
