package services

import (
	"context"
	"strings"
	"time"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// ScheduleService manages the slot catalog and the per-day
// availability register
type ScheduleService struct {
	slotRepo         repositories.SlotRepository
	availabilityRepo repositories.AvailabilityRepository
	doctorRepo       repositories.DoctorRepository
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	slotRepo repositories.SlotRepository,
	availabilityRepo repositories.AvailabilityRepository,
	doctorRepo repositories.DoctorRepository,
) *ScheduleService {
	return &ScheduleService{
		slotRepo:         slotRepo,
		availabilityRepo: availabilityRepo,
		doctorRepo:       doctorRepo,
	}
}

// UpsertSlot adds a time-of-day label to a doctor's catalog. Repeating
// the call for the same (doctor, label) pair is a no-op refresh.
func (s *ScheduleService) UpsertSlot(ctx context.Context, hospitalID, doctorID, timeLabel string) (*entities.Slot, error) {
	timeLabel = strings.TrimSpace(timeLabel)
	if doctorID == "" || timeLabel == "" {
		return nil, apperrors.NewValidationError("doctor id and slot time are required")
	}
	if !validSlotLabel(timeLabel) {
		return nil, apperrors.NewValidationError("slot time must look like 10:30 AM or 14:30")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.HospitalID != hospitalID {
		return nil, apperrors.NewUnauthorizedError("doctor belongs to another hospital")
	}

	return s.slotRepo.Upsert(ctx, &entities.Slot{
		DoctorID:  doctorID,
		TimeLabel: timeLabel,
	})
}

// DeleteSlot removes a slot from the catalog. Existing bookings keep
// their stored label; only future booking of the label stops.
func (s *ScheduleService) DeleteSlot(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("slot id is required")
	}
	return s.slotRepo.Delete(ctx, id)
}

// ListSlots returns a doctor's slot catalog
func (s *ScheduleService) ListSlots(ctx context.Context, doctorID string) ([]*entities.Slot, error) {
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctor id is required")
	}
	return s.slotRepo.ListByDoctor(ctx, doctorID)
}

// SetAvailability records whether a doctor takes bookings on a day
func (s *ScheduleService) SetAvailability(ctx context.Context, hospitalID, doctorID, date string, available bool) (*entities.Availability, error) {
	if doctorID == "" || date == "" {
		return nil, apperrors.NewValidationError("doctor id and date are required")
	}

	day, err := time.ParseInLocation(bookingDateFormat, date, time.UTC)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.HospitalID != hospitalID {
		return nil, apperrors.NewUnauthorizedError("doctor belongs to another hospital")
	}

	return s.availabilityRepo.Upsert(ctx, &entities.Availability{
		DoctorID:  doctorID,
		Day:       day,
		Available: available,
	})
}

// GetAvailability returns a doctor's availability register
func (s *ScheduleService) GetAvailability(ctx context.Context, doctorID string) ([]*entities.Availability, error) {
	if doctorID == "" {
		return nil, apperrors.NewValidationError("doctor id is required")
	}

	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	return s.availabilityRepo.ListByDoctor(ctx, doctorID)
}

func validSlotLabel(label string) bool {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, layout := range slotTimeFormats {
		if _, err := time.Parse(layout, label); err == nil {
			return true
		}
	}
	return false
}
