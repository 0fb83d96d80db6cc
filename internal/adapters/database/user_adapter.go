package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

const uniqueEmailConstraint = "ux_users_email"

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new user. A duplicate email surfaces as a conflict.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"hospital_id":   user.HospitalID,
		"created_at":    user.CreatedAt,
	}

	query, args, err := a.db.Insert("users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err, uniqueEmailConstraint) {
			return apperrors.NewConflictError("an account with this email already exists")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getBy(ctx, goqu.Ex{"id": id}, fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getBy(ctx, goqu.Ex{"email": email}, "user not found")
}

func (a *UserAdapter) getBy(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.User, error) {
	query, args, err := a.db.From("users").
		Select("id", "name", "email", "password_hash", "role", "hospital_id", "created_at").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user := &entities.User{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.HospitalID,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}
