package repositories

import (
	"context"
	"time"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// BookingRepository defines the interface for the booking ledger.
//
// Book is the only creation path and must run its quota check, slot
// occupancy check, token assignment and insert as one isolated unit.
type BookingRepository interface {
	// Book atomically validates the patient's daily quota and the slot's
	// occupancy, assigns the next token for the doctor-day and commits
	// the booking. The passed booking carries doctor, hospital, patient,
	// appointment time and slot label; id, token, status and timestamps
	// are filled in on success.
	Book(ctx context.Context, booking *entities.Booking, dailyLimit int) error

	// GetOwned retrieves a booking scoped to its owning patient.
	// Returns a NotFound error when no such pair exists.
	GetOwned(ctx context.Context, id, patientID string) (*entities.Booking, error)

	// Cancel marks a BOOKED booking owned by patientID as CANCELLED.
	// Returns the number of rows changed; zero is not an error.
	Cancel(ctx context.Context, id, patientID string) (int64, error)

	// ListUpcomingByPatient returns the patient's non-completed bookings
	// plus completed ones from today onward, soonest first.
	ListUpcomingByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error)

	// ListHistoryByPatient returns past or no-longer-booked bookings,
	// most recent first.
	ListHistoryByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error)

	// ListByHospital returns the hospital's bookings for display,
	// hiding completed bookings older than today, soonest first.
	ListByHospital(ctx context.Context, hospitalID string, startOfToday time.Time) ([]*entities.BookingListItem, error)

	// ListPatientsByHospital returns the distinct patients with
	// non-cancelled bookings at the hospital, each carrying their most
	// recent appointment time and its token number.
	ListPatientsByHospital(ctx context.Context, hospitalID string) ([]*entities.HospitalPatient, error)

	// CountByHospitalBetween counts bookings for a hospital in a time range.
	CountByHospitalBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error)

	// CountDistinctPatientsBetween counts unique patients with bookings
	// for a hospital in a time range.
	CountDistinctPatientsBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error)

	// CompleteElapsed transitions BOOKED bookings whose appointment time
	// is before cutoff to COMPLETED and returns how many changed.
	CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error)
}
