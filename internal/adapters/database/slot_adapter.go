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

// SlotAdapter implements the SlotRepository interface
type SlotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSlotAdapter creates a new slot adapter
func NewSlotAdapter(client *postgres.Client) repositories.SlotRepository {
	return &SlotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert creates or refreshes a slot keyed on (doctor, time label).
// The conflict target makes the call idempotent: repeating it never
// yields a second row.
func (a *SlotAdapter) Upsert(ctx context.Context, slot *entities.Slot) (*entities.Slot, error) {
	now := time.Now()
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}

	query, args, err := a.db.Insert("slots").
		Rows(goqu.Record{
			"id":         slot.ID,
			"doctor_id":  slot.DoctorID,
			"time_label": slot.TimeLabel,
			"created_at": now,
			"updated_at": now,
		}).
		OnConflict(goqu.DoUpdate(
			"doctor_id, time_label",
			goqu.Record{"updated_at": now},
		)).
		Returning("id", "doctor_id", "time_label", "created_at", "updated_at").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upsert query", err)
	}

	stored := &entities.Slot{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&stored.ID,
		&stored.DoctorID,
		&stored.TimeLabel,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to upsert slot", err)
	}
	return stored, nil
}

// Delete removes a slot by id; absent slots are not an error
func (a *SlotAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("slots").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete slot", err)
	}
	return nil
}

// ListByDoctor returns the doctor's slots ordered by time label
func (a *SlotAdapter) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Slot, error) {
	query, args, err := a.db.From("slots").
		Select("id", "doctor_id", "time_label", "created_at", "updated_at").
		Where(goqu.Ex{"doctor_id": doctorID}).
		Order(goqu.I("time_label").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list slots", err)
	}
	defer rows.Close()

	var slots []*entities.Slot
	for rows.Next() {
		slot := &entities.Slot{}
		if err := rows.Scan(&slot.ID, &slot.DoctorID, &slot.TimeLabel, &slot.CreatedAt, &slot.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate slots", err)
	}

	return slots, nil
}
