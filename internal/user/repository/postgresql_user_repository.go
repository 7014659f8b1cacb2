// Package repository implements credential-store persistence for users and
// biometric templates. Both PostgreSQL and MySQL are supported.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	behaviorDomain "github.com/allisson/authguard/internal/behavior/domain"
	"github.com/allisson/authguard/internal/database"
	apperrors "github.com/allisson/authguard/internal/errors"
	userDomain "github.com/allisson/authguard/internal/user/domain"
)

// PostgreSQLUserRepository implements user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a PostgreSQL user repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *userDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO users (id, email, password_hash, usual_lat, usual_lon, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

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
func (p *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, password_hash, usual_lat, usual_lon, created_at, updated_at
			  FROM users
			  WHERE email = $1
			  LIMIT 1`

	return scanUser(querier.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by id.
func (p *PostgreSQLUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*userDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, password_hash, usual_lat, usual_lon, created_at, updated_at
			  FROM users
			  WHERE id = $1
			  LIMIT 1`

	return scanUser(querier.QueryRowContext(ctx, query, userID))
}

// CreateTemplate enrolls a biometric template for a user.
func (p *PostgreSQLUserRepository) CreateTemplate(ctx context.Context, template *userDomain.BiometricTemplate) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO biometric_templates (id, user_id, modality, reference, created_at, last_used_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

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
func (p *PostgreSQLUserRepository) GetTemplates(
	ctx context.Context,
	userID uuid.UUID,
) ([]*userDomain.BiometricTemplate, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, modality, reference, created_at, last_used_at
			  FROM biometric_templates
			  WHERE user_id = $1
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
func (p *PostgreSQLUserRepository) TouchTemplate(ctx context.Context, templateID uuid.UUID, usedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE biometric_templates SET last_used_at = $1 WHERE id = $2`

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

// scanUser maps a user row, translating nullable location columns.
func scanUser(row *sql.Row) (*userDomain.User, error) {
	var (
		user     userDomain.User
		lat, lon sql.NullFloat64
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&lat,
		&lon,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, userDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if lat.Valid && lon.Valid {
		user.UsualLocation = &behaviorDomain.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
	}

	return &user, nil
}

// coordinateColumns splits an optional coordinate into nullable columns.
func coordinateColumns(coordinate *behaviorDomain.Coordinate) (sql.NullFloat64, sql.NullFloat64) {
	if coordinate == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: coordinate.Lat, Valid: true},
		sql.NullFloat64{Float64: coordinate.Lon, Valid: true}
}
