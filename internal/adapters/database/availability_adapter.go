package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// AvailabilityAdapter implements the AvailabilityRepository interface
type AvailabilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAvailabilityAdapter creates a new availability adapter
func NewAvailabilityAdapter(client *postgres.Client) repositories.AvailabilityRepository {
	return &AvailabilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert creates or replaces the availability row for (doctor, day)
func (a *AvailabilityAdapter) Upsert(ctx context.Context, availability *entities.Availability) (*entities.Availability, error) {
	now := time.Now()
	if availability.ID == "" {
		availability.ID = uuid.New().String()
	}

	query, args, err := a.db.Insert("availability").
		Rows(goqu.Record{
			"id":         availability.ID,
			"doctor_id":  availability.DoctorID,
			"day":        availability.Day.Format(dayFormat),
			"available":  availability.Available,
			"created_at": now,
			"updated_at": now,
		}).
		OnConflict(goqu.DoUpdate(
			"doctor_id, day",
			goqu.Record{"available": availability.Available, "updated_at": now},
		)).
		Returning("id", "doctor_id", "day", "available", "created_at", "updated_at").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upsert query", err)
	}

	stored := &entities.Availability{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&stored.ID,
		&stored.DoctorID,
		&stored.Day,
		&stored.Available,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to upsert availability", err)
	}
	return stored, nil
}

// ListByDoctor returns the doctor's availability rows ordered by day
func (a *AvailabilityAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Availability, error) {
	query, args, err := a.db.From("availability").
		Select("id", "doctor_id", "day", "available", "created_at", "updated_at").
		Where(goqu.Ex{"doctor_id": doctorID}).
		Order(goqu.I("day").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list availability", err)
	}
	defer rows.Close()

	var items []*entities.Availability
	for rows.Next() {
		item := &entities.Availability{}
		if err := rows.Scan(&item.ID, &item.DoctorID, &item.Day, &item.Available, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan availability", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate availability", err)
	}

	return items, nil
}
