package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	biometricDomain "github.com/allisson/authguard/internal/biometric/domain"
	biometricService "github.com/allisson/authguard/internal/biometric/service"
	userDomain "github.com/allisson/authguard/internal/user/domain"
	userRepository "github.com/allisson/authguard/internal/user/repository"
)

// RunEnrollTemplate enrolls a biometric reference for an existing subject.
// The capture file is read, reduced to its stored reference and persisted as
// a template for the given modality.
func RunEnrollTemplate(
	ctx context.Context,
	users userRepository.Repository,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	modality string,
	captureFile string,
) error {
	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	switch modality {
	case biometricDomain.ModalityFace, biometricDomain.ModalityFingerprint, biometricDomain.ModalityVoice:
	default:
		return fmt.Errorf(
			"invalid modality: %s (valid options: face, fingerprint, voice)",
			modality,
		)
	}

	data, err := os.ReadFile(captureFile)
	if err != nil {
		return fmt.Errorf("failed to read capture file: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("capture file is empty: %s", captureFile)
	}

	user, err := users.GetByID(ctx, parsedUserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	templateID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate template id: %w", err)
	}

	template := &userDomain.BiometricTemplate{
		ID:        templateID,
		UserID:    user.ID,
		Modality:  modality,
		Reference: biometricService.EnrollReference(data),
		CreatedAt: time.Now().UTC(),
	}

	if err := users.CreateTemplate(ctx, template); err != nil {
		return fmt.Errorf("failed to enroll template: %w", err)
	}

	logger.Info("biometric template enrolled",
		slog.String("user_id", user.ID.String()),
		slog.String("template_id", template.ID.String()),
		slog.String("modality", modality),
	)

	fmt.Fprintf(writer, "Biometric template enrolled successfully!\n")
	fmt.Fprintf(writer, "Template ID: %s\n", template.ID)
	fmt.Fprintf(writer, "Modality: %s\n", modality)

	return nil
}
