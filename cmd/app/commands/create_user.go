package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authService "github.com/allisson/authguard/internal/auth/service"
	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	userDomain "github.com/allisson/authguard/internal/user/domain"
	userRepository "github.com/allisson/authguard/internal/user/repository"
	customValidation "github.com/allisson/authguard/internal/validation"
)

// CreateUserInput holds the parameters for creating a subject.
type CreateUserInput struct {
	Email        string
	Password     string
	Lat          float64
	Lon          float64
	WithLocation bool
}

// RunCreateUser creates a subject in the credential store with a hashed
// password and an optional usual location for behavioral baselines.
func RunCreateUser(
	ctx context.Context,
	users userRepository.Repository,
	passwords authService.PasswordService,
	logger *slog.Logger,
	writer io.Writer,
	input CreateUserInput,
) error {
	if input.Email == "" {
		return fmt.Errorf("email is required")
	}
	if input.Password == "" {
		return fmt.Errorf("password is required")
	}
	if err := validation.Validate(input.Password, customValidation.PasswordStrength{MinLength: 12}); err != nil {
		return fmt.Errorf("weak password: %w", err)
	}

	hashedPassword, err := passwords.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate user id: %w", err)
	}

	now := time.Now().UTC()
	user := &userDomain.User{
		ID:           id,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.WithLocation {
		user.UsualLocation = &behaviorDomain.Coordinate{Lat: input.Lat, Lon: input.Lon}
	}

	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("email", user.Email),
	)

	fmt.Fprintf(writer, "User created successfully!\n")
	fmt.Fprintf(writer, "ID: %s\n", user.ID)
	fmt.Fprintf(writer, "Email: %s\n", user.Email)

	return nil
}
