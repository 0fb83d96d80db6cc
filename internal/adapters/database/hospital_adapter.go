package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// HospitalAdapter implements the HospitalRepository interface
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital adapter
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRepository {
	return &HospitalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new hospital
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	record := goqu.Record{
		"id":         hospital.ID,
		"name":       hospital.Name,
		"email":      hospital.Email,
		"location":   hospital.Location,
		"created_at": hospital.CreatedAt,
	}

	query, args, err := a.db.Insert("hospitals").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}
	return nil
}

// GetByID retrieves a hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	query, args, err := a.db.From("hospitals").
		Select("id", "name", "email", "location", "created_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	hospital := &entities.Hospital{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&hospital.ID,
		&hospital.Name,
		&hospital.Email,
		&hospital.Location,
		&hospital.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}
	return hospital, nil
}

// SearchBySpeciality finds hospitals employing doctors of a speciality.
// Grouping collapses the doctor rows into a per-hospital match count.
func (a *HospitalAdapter) SearchBySpeciality(ctx context.Context, speciality, location string) ([]*entities.HospitalSearchResult, error) {
	ds := a.db.From(goqu.T("hospitals").As("h")).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.Ex{"d.hospital_id": goqu.I("h.id")})).
		Select(
			goqu.I("h.id"),
			goqu.I("h.name"),
			goqu.I("h.email"),
			goqu.I("h.location"),
			goqu.COUNT(goqu.I("d.id")).As("doctor_count"),
		).
		Where(goqu.L("lower(d.speciality)").Eq(strings.ToLower(speciality))).
		GroupBy(goqu.I("h.id"), goqu.I("h.name"), goqu.I("h.email"), goqu.I("h.location")).
		Order(goqu.I("h.name").Asc())

	if location != "" {
		ds = ds.Where(goqu.L("lower(h.location)").Like("%" + strings.ToLower(location) + "%"))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search hospitals", err)
	}
	defer rows.Close()

	var results []*entities.HospitalSearchResult
	for rows.Next() {
		result := &entities.HospitalSearchResult{}
		err := rows.Scan(
			&result.ID,
			&result.Name,
			&result.Email,
			&result.Location,
			&result.DoctorCount,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan hospital", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate hospitals", err)
	}

	return results, nil
}
