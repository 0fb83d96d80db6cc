package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/providers"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

const bookingDateFormat = "2006-01-02"

// slotTimeFormats are the accepted time-of-day label layouts, tried in
// order. Labels are trimmed and upper-cased before use: the label is
// the occupancy key, so one wall-clock time must not spell two keys.
var slotTimeFormats = []string{"3:04 PM", "15:04"}

// BookingService handles the slot booking transaction and the patient
// lifecycle around it
type BookingService struct {
	repo        repositories.BookingRepository
	doctorRepo  repositories.DoctorRepository
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	dailyLimit  int
	cancelGrace time.Duration
}

// NewBookingService creates a new booking service
func NewBookingService(
	repo repositories.BookingRepository,
	doctorRepo repositories.DoctorRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	dailyLimit int,
	cancelDeadlineMinutes int,
) *BookingService {
	return &BookingService{
		repo:        repo,
		doctorRepo:  doctorRepo,
		eventBus:    eventBus,
		metrics:     metrics,
		dailyLimit:  dailyLimit,
		cancelGrace: time.Duration(cancelDeadlineMinutes) * time.Minute,
	}
}

// Book claims a slot for a patient. The repository runs the quota
// check, occupancy check and token assignment as one transaction; this
// layer validates the request shape, resolves the doctor and publishes
// the resulting event.
func (s *BookingService) Book(ctx context.Context, patientID, doctorID, date, slotTime string) (*entities.Booking, error) {
	if patientID == "" {
		return nil, apperrors.NewUnauthorizedError("missing patient identity")
	}
	slotTime = strings.ToUpper(strings.TrimSpace(slotTime))
	if doctorID == "" || date == "" || slotTime == "" {
		return nil, apperrors.NewValidationError("doctor id, date and slot time are required")
	}

	appointmentAt, err := combineDateAndSlot(date, slotTime)
	if err != nil {
		return nil, err
	}
	if appointmentAt.Before(time.Now().UTC()) {
		return nil, apperrors.NewValidationError("cannot book an appointment in the past")
	}

	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	booking := &entities.Booking{
		DoctorID:      doctor.ID,
		HospitalID:    doctor.HospitalID,
		PatientID:     patientID,
		AppointmentAt: appointmentAt,
		SlotTime:      slotTime,
	}

	if err := s.repo.Book(ctx, booking, s.dailyLimit); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code != "" {
			observability.RecordBookingConflict(ctx, s.metrics, appErr.Code)
		}
		return nil, err
	}

	observability.RecordBookingCreated(ctx, s.metrics, doctor.ID)
	s.publish(ctx, entities.BookingEventCreated, booking)

	return booking, nil
}

// Cancel releases a patient's booking. Cancelling a booking that does
// not exist, belongs to someone else or is already cancelled succeeds
// silently; only a booking too close to its appointment time is
// rejected.
func (s *BookingService) Cancel(ctx context.Context, bookingID, patientID string) error {
	if patientID == "" {
		return apperrors.NewUnauthorizedError("missing patient identity")
	}
	if bookingID == "" {
		return apperrors.NewValidationError("booking id is required")
	}

	booking, err := s.repo.GetOwned(ctx, bookingID, patientID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeNotFound {
			return nil
		}
		return err
	}

	if booking.Status == entities.BookingStatusBooked {
		if time.Until(booking.AppointmentAt) < s.cancelGrace {
			return apperrors.NewValidationError("bookings can no longer be cancelled this close to the appointment")
		}
	}

	affected, err := s.repo.Cancel(ctx, bookingID, patientID)
	if err != nil {
		return err
	}
	if affected > 0 {
		booking.Status = entities.BookingStatusCancelled
		s.publish(ctx, entities.BookingEventCancelled, booking)
	}

	return nil
}

// ListUpcoming returns the patient's current bookings, soonest first
func (s *BookingService) ListUpcoming(ctx context.Context, patientID string) ([]*entities.BookingListItem, error) {
	if patientID == "" {
		return nil, apperrors.NewUnauthorizedError("missing patient identity")
	}
	return s.repo.ListUpcomingByPatient(ctx, patientID, startOfToday(time.Now().UTC()))
}

// ListHistory returns the patient's past bookings, most recent first
func (s *BookingService) ListHistory(ctx context.Context, patientID string) ([]*entities.BookingListItem, error) {
	if patientID == "" {
		return nil, apperrors.NewUnauthorizedError("missing patient identity")
	}
	return s.repo.ListHistoryByPatient(ctx, patientID, startOfToday(time.Now().UTC()))
}

// ListForHospital returns a hospital's booking sheet for admin display
func (s *BookingService) ListForHospital(ctx context.Context, hospitalID string) ([]*entities.BookingListItem, error) {
	if hospitalID == "" {
		return nil, apperrors.NewUnauthorizedError("missing hospital affiliation")
	}
	return s.repo.ListByHospital(ctx, hospitalID, startOfToday(time.Now().UTC()))
}

func (s *BookingService) publish(ctx context.Context, eventType entities.BookingEventType, booking *entities.Booking) {
	if s.eventBus == nil {
		return
	}

	event := &entities.BookingEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		BookingID:   booking.ID,
		DoctorID:    booking.DoctorID,
		HospitalID:  booking.HospitalID,
		PatientID:   booking.PatientID,
		SlotTime:    booking.SlotTime,
		TokenNumber: booking.TokenNumber,
		OccurredAt:  time.Now().UTC(),
	}

	logger := observability.LoggerFromContext(ctx)

	// Event delivery is best effort; a committed booking is never rolled
	// back because a dashboard missed its refresh.
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.eventBus.Publish(bgCtx, providers.EventChannelBookings, event); err != nil {
			logger.Warn().Err(err).Str("booking_id", event.BookingID).Msg("failed to publish booking event")
			return
		}
		if err := s.eventBus.Publish(bgCtx, providers.GetHospitalChannel(event.HospitalID), event); err != nil {
			logger.Warn().Err(err).Str("booking_id", event.BookingID).Msg("failed to publish hospital event")
		}
	}()
}

// combineDateAndSlot builds the appointment timestamp from a calendar
// date and an already-normalized time-of-day label
func combineDateAndSlot(date, slotTime string) (time.Time, error) {
	day, err := time.ParseInLocation(bookingDateFormat, date, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}

	for _, layout := range slotTimeFormats {
		if tod, err := time.Parse(layout, slotTime); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, apperrors.NewValidationError("slot time must look like 10:30 AM or 14:30")
}

func startOfToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func endOfToday(now time.Time) time.Time {
	return startOfToday(now).Add(24 * time.Hour)
}
