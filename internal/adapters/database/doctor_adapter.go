package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// DoctorAdapter implements the DoctorRepository interface
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new doctor
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	record := goqu.Record{
		"id":              doctor.ID,
		"hospital_id":     doctor.HospitalID,
		"name":            doctor.Name,
		"speciality":      doctor.Speciality,
		"fee":             doctor.Fee,
		"available_today": doctor.AvailableToday,
		"created_at":      doctor.CreatedAt,
		"updated_at":      doctor.UpdatedAt,
	}

	query, args, err := a.db.Insert("doctors").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}
	return nil
}

// GetByID retrieves a doctor by ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	query, args, err := a.db.From("doctors").
		Select(doctorColumns()...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&doctor.ID,
		&doctor.HospitalID,
		&doctor.Name,
		&doctor.Speciality,
		&doctor.Fee,
		&doctor.AvailableToday,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return doctor, nil
}

// ListByHospital retrieves the doctors of a hospital
func (a *DoctorAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	query, args, err := a.db.From("doctors").
		Select(doctorColumns()...).
		Where(goqu.Ex{"hospital_id": hospitalID}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	var doctors []*entities.Doctor
	for rows.Next() {
		doctor := &entities.Doctor{}
		err := rows.Scan(
			&doctor.ID,
			&doctor.HospitalID,
			&doctor.Name,
			&doctor.Speciality,
			&doctor.Fee,
			&doctor.AvailableToday,
			&doctor.CreatedAt,
			&doctor.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}

	return doctors, nil
}

// CountByHospital counts the doctors of a hospital
func (a *DoctorAdapter) CountByHospital(ctx context.Context, hospitalID string) (int, error) {
	query, args, err := a.db.From("doctors").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count doctors", err)
	}
	return count, nil
}

// CountByHospitalCreatedBetween counts doctors added in a time range
func (a *DoctorAdapter) CountByHospitalCreatedBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	query, args, err := a.db.From("doctors").
		Select(goqu.COUNT("*")).
		Where(
			goqu.Ex{"hospital_id": hospitalID},
			goqu.C("created_at").Gte(from),
			goqu.C("created_at").Lt(to),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count doctors", err)
	}
	return count, nil
}

func doctorColumns() []interface{} {
	return []interface{}{
		"id", "hospital_id", "name", "speciality", "fee",
		"available_today", "created_at", "updated_at",
	}
}
