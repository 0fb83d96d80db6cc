package repositories

import (
	"context"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// SlotRepository defines the interface for the permanent slot catalog
type SlotRepository interface {
	// Upsert creates or refreshes the slot keyed on (doctor, time label)
	// and returns the stored row. Calling it twice with the same pair
	// yields exactly one row.
	Upsert(ctx context.Context, slot *entities.Slot) (*entities.Slot, error)

	// Delete removes a slot by id. Deleting an absent slot succeeds.
	Delete(ctx context.Context, id string) error

	// ListByDoctor returns the doctor's slots ordered by time label.
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Slot, error)
}

// AvailabilityRepository defines the interface for the per-day
// availability register
type AvailabilityRepository interface {
	// Upsert creates or replaces the row keyed on (doctor, day) and
	// returns the stored row.
	Upsert(ctx context.Context, availability *entities.Availability) (*entities.Availability, error)

	// ListByDoctor returns the doctor's availability rows ordered by day.
	ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Availability, error)
}
