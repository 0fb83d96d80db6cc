package repositories

import (
	"context"
	"time"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// DoctorRepository defines the interface for the doctor directory
type DoctorRepository interface {
	// Create creates a new doctor
	Create(ctx context.Context, doctor *entities.Doctor) error

	// GetByID retrieves a doctor by ID
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)

	// ListByHospital retrieves the doctors of a hospital
	ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error)

	// CountByHospital counts the doctors of a hospital
	CountByHospital(ctx context.Context, hospitalID string) (int, error)

	// CountByHospitalCreatedBetween counts doctors added in a time range
	CountByHospitalCreatedBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error)
}

// HospitalRepository defines the interface for the hospital directory
type HospitalRepository interface {
	// Create creates a new hospital
	Create(ctx context.Context, hospital *entities.Hospital) error

	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)

	// SearchBySpeciality returns hospitals that employ at least one
	// doctor of the given speciality (case-insensitive exact match),
	// optionally narrowed to a location, with matching-doctor counts.
	SearchBySpeciality(ctx context.Context, speciality, location string) ([]*entities.HospitalSearchResult, error)
}

// UserRepository defines the interface for the identity store
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}
