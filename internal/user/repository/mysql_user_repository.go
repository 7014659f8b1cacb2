package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/authguard/internal/database"
	apperrors "github.com/allisson/authguard/internal/errors"
	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// MySQLUserRepository implements user persistence for MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user.
func (m *MySQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO users (id, email, password_hash, usual_lat, usual_lon, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	lat, lon := coordinateColumns(user.UsualLocation)
	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		lat,
		lon,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByEmail retrieves a user by email.
func (m *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, password_hash, usual_lat, usual_lon, created_at, updated_at
			  FROM users
			  WHERE email = ?
			  LIMIT 1`

	return scanUser(querier.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by id.
func (m *MySQLUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*userDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, password_hash, usual_lat, usual_lon, created_at, updated_at
			  FROM users
			  WHERE id = ?
			  LIMIT 1`

	return scanUser(querier.QueryRowContext(ctx, query, userID))
}

// CreateTemplate enrolls a biometric template for a user.
func (m *MySQLUserRepository) CreateTemplate(ctx context.Context, template *userDomain.BiometricTemplate) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO biometric_templates (id, user_id, modality, reference, created_at, last_used_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		template.ID,
		template.UserID,
		template.Modality,
		template.Reference,
		template.CreatedAt,
		template.LastUsedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create biometric template")
	}
	return nil
}

// GetTemplates retrieves all enrolled templates for a user.
func (m *MySQLUserRepository) GetTemplates(
	ctx context.Context,
	userID uuid.UUID,
) ([]*userDomain.BiometricTemplate, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, modality, reference, created_at, last_used_at
			  FROM biometric_templates
			  WHERE user_id = ?
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list biometric templates")
	}
	defer rows.Close()

	var templates []*userDomain.BiometricTemplate
	for rows.Next() {
		var template userDomain.BiometricTemplate
		err := rows.Scan(
			&template.ID,
			&template.UserID,
			&template.Modality,
			&template.Reference,
			&template.CreatedAt,
			&template.LastUsedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan biometric template")
		}
		templates = append(templates, &template)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate biometric templates")
	}

	return templates, nil
}

// TouchTemplate updates a template's last-used timestamp.
func (m *MySQLUserRepository) TouchTemplate(ctx context.Context, templateID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE biometric_templates SET last_used_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, usedAt, templateID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update biometric template")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check biometric template update")
	}
	if affected == 0 {
		return userDomain.ErrTemplateNotFound
	}
	return nil
}
