package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// fakeUserRepository is an in-memory Repository for command tests.
type fakeUserRepository struct {
	users     map[uuid.UUID]*userDomain.User
	templates map[uuid.UUID][]*userDomain.BiometricTemplate

	createErr         error
	createTemplateErr error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:     make(map[uuid.UUID]*userDomain.User),
		templates: make(map[uuid.UUID][]*userDomain.BiometricTemplate),
	}
}

func (f *fakeUserRepository) Create(_ context.Context, user *userDomain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepository) GetByEmail(_ context.Context, email string) (*userDomain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, userDomain.ErrUserNotFound
}

func (f *fakeUserRepository) GetByID(_ context.Context, userID uuid.UUID) (*userDomain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, userDomain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) CreateTemplate(_ context.Context, template *userDomain.BiometricTemplate) error {
	if f.createTemplateErr != nil {
		return f.createTemplateErr
	}
	f.templates[template.UserID] = append(f.templates[template.UserID], template)
	return nil
}

func (f *fakeUserRepository) GetTemplates(_ context.Context, userID uuid.UUID) ([]*userDomain.BiometricTemplate, error) {
	templates := f.templates[userID]
	if len(templates) == 0 {
		return nil, userDomain.ErrTemplateNotFound
	}
	return templates, nil
}

func (f *fakeUserRepository) TouchTemplate(_ context.Context, templateID uuid.UUID, usedAt time.Time) error {
	for _, templates := range f.templates {
		for _, template := range templates {
			if template.ID == templateID {
				template.LastUsedAt = &usedAt
				return nil
			}
		}
	}
	return userDomain.ErrTemplateNotFound
}
