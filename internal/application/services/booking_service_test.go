package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// Mocks

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Book(ctx context.Context, booking *entities.Booking, dailyLimit int) error {
	args := m.Called(ctx, booking, dailyLimit)
	return args.Error(0)
}

func (m *MockBookingRepository) GetOwned(ctx context.Context, id, patientID string) (*entities.Booking, error) {
	args := m.Called(ctx, id, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id, patientID string) (int64, error) {
	args := m.Called(ctx, id, patientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) ListUpcomingByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	args := m.Called(ctx, patientID, startOfToday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BookingListItem), args.Error(1)
}

func (m *MockBookingRepository) ListHistoryByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	args := m.Called(ctx, patientID, startOfToday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BookingListItem), args.Error(1)
}

func (m *MockBookingRepository) ListByHospital(ctx context.Context, hospitalID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	args := m.Called(ctx, hospitalID, startOfToday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BookingListItem), args.Error(1)
}

func (m *MockBookingRepository) ListPatientsByHospital(ctx context.Context, hospitalID string) ([]*entities.HospitalPatient, error) {
	args := m.Called(ctx, hospitalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HospitalPatient), args.Error(1)
}

func (m *MockBookingRepository) CountByHospitalBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, hospitalID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) CountDistinctPatientsBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, hospitalID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) Create(ctx context.Context, doctor *entities.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, hospitalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) CountByHospital(ctx context.Context, hospitalID string) (int, error) {
	args := m.Called(ctx, hospitalID)
	return args.Int(0), args.Error(1)
}

func (m *MockDoctorRepository) CountByHospitalCreatedBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, hospitalID, from, to)
	return args.Int(0), args.Error(1)
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}

func testDoctor() *entities.Doctor {
	return &entities.Doctor{
		ID:         "doc-1",
		HospitalID: "hosp-1",
		Name:       "Dr. Adaeze Obi",
		Speciality: "Cardiology",
	}
}

// Tests

func TestBookingService_Book(t *testing.T) {
	t.Run("books a slot and denormalizes the hospital", func(t *testing.T) {
		repo := new(MockBookingRepository)
		doctorRepo := new(MockDoctorRepository)
		service := services.NewBookingService(repo, doctorRepo, nil, nil, 2, 60)

		doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(testDoctor(), nil)
		repo.On("Book", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.DoctorID == "doc-1" &&
				b.HospitalID == "hosp-1" &&
				b.PatientID == "pat-1" &&
				b.SlotTime == "10:30 AM" &&
				b.AppointmentAt.Hour() == 10 && b.AppointmentAt.Minute() == 30
		}), 2).Return(nil)

		booking, err := service.Book(context.Background(), "pat-1", "doc-1", futureDate(), "10:30 AM")

		require.NoError(t, err)
		assert.Equal(t, "hosp-1", booking.HospitalID)
		repo.AssertExpectations(t)
		doctorRepo.AssertExpectations(t)
	})

	t.Run("accepts 24-hour slot labels", func(t *testing.T) {
		repo := new(MockBookingRepository)
		doctorRepo := new(MockDoctorRepository)
		service := services.NewBookingService(repo, doctorRepo, nil, nil, 2, 60)

		doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(testDoctor(), nil)
		repo.On("Book", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.AppointmentAt.Hour() == 14 && b.AppointmentAt.Minute() == 30
		}), 2).Return(nil)

		_, err := service.Book(context.Background(), "pat-1", "doc-1", futureDate(), "14:30")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("normalizes the slot label before storing", func(t *testing.T) {
		repo := new(MockBookingRepository)
		doctorRepo := new(MockDoctorRepository)
		service := services.NewBookingService(repo, doctorRepo, nil, nil, 2, 60)

		doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(testDoctor(), nil)
		// "  10:30 am " and "10:30 AM" must land on the same occupancy key.
		repo.On("Book", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.SlotTime == "10:30 AM" &&
				b.AppointmentAt.Hour() == 10 && b.AppointmentAt.Minute() == 30
		}), 2).Return(nil)

		booking, err := service.Book(context.Background(), "pat-1", "doc-1", futureDate(), "  10:30 am ")

		require.NoError(t, err)
		assert.Equal(t, "10:30 AM", booking.SlotTime)
		repo.AssertExpectations(t)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		service := services.NewBookingService(new(MockBookingRepository), new(MockDoctorRepository), nil, nil, 2, 60)

		_, err := service.Book(context.Background(), "pat-1", "", futureDate(), "10:30 AM")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("rejects malformed slot labels", func(t *testing.T) {
		service := services.NewBookingService(new(MockBookingRepository), new(MockDoctorRepository), nil, nil, 2, 60)

		_, err := service.Book(context.Background(), "pat-1", "doc-1", futureDate(), "half past ten")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("rejects appointments in the past", func(t *testing.T) {
		service := services.NewBookingService(new(MockBookingRepository), new(MockDoctorRepository), nil, nil, 2, 60)

		past := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
		_, err := service.Book(context.Background(), "pat-1", "doc-1", past, "10:30 AM")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})

	t.Run("propagates unknown doctor as not found", func(t *testing.T) {
		repo := new(MockBookingRepository)
		doctorRepo := new(MockDoctorRepository)
		service := services.NewBookingService(repo, doctorRepo, nil, nil, 2, 60)

		doctorRepo.On("GetByID", mock.Anything, "ghost").
			Return(nil, apperrors.NewNotFoundError("doctor with id ghost not found"))

		_, err := service.Book(context.Background(), "pat-1", "ghost", futureDate(), "10:30 AM")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
		repo.AssertNotCalled(t, "Book")
	})

	t.Run("propagates quota and occupancy conflicts untouched", func(t *testing.T) {
		for _, repoErr := range []error{
			apperrors.NewDailyLimitError("you can only book 2 appointments per day"),
			apperrors.NewSlotTakenError("this slot is already booked"),
		} {
			repo := new(MockBookingRepository)
			doctorRepo := new(MockDoctorRepository)
			service := services.NewBookingService(repo, doctorRepo, nil, nil, 2, 60)

			doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(testDoctor(), nil)
			repo.On("Book", mock.Anything, mock.Anything, 2).Return(repoErr)

			_, err := service.Book(context.Background(), "pat-1", "doc-1", futureDate(), "10:30 AM")

			assert.Equal(t, repoErr, err)
		}
	})
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("cancels an owned booking", func(t *testing.T) {
		repo := new(MockBookingRepository)
		service := services.NewBookingService(repo, new(MockDoctorRepository), nil, nil, 2, 60)

		booking := &entities.Booking{
			ID:            "b-1",
			PatientID:     "pat-1",
			Status:        entities.BookingStatusBooked,
			AppointmentAt: time.Now().Add(48 * time.Hour),
		}
		repo.On("GetOwned", mock.Anything, "b-1", "pat-1").Return(booking, nil)
		repo.On("Cancel", mock.Anything, "b-1", "pat-1").Return(int64(1), nil)

		require.NoError(t, service.Cancel(context.Background(), "b-1", "pat-1"))
		repo.AssertExpectations(t)
	})

	t.Run("cancelling an unknown booking succeeds silently", func(t *testing.T) {
		repo := new(MockBookingRepository)
		service := services.NewBookingService(repo, new(MockDoctorRepository), nil, nil, 2, 60)

		repo.On("GetOwned", mock.Anything, "ghost", "pat-1").
			Return(nil, apperrors.NewNotFoundError("booking ghost not found for patient"))

		require.NoError(t, service.Cancel(context.Background(), "ghost", "pat-1"))
		repo.AssertNotCalled(t, "Cancel")
	})

	t.Run("rejects cancellation too close to the appointment", func(t *testing.T) {
		repo := new(MockBookingRepository)
		service := services.NewBookingService(repo, new(MockDoctorRepository), nil, nil, 2, 60)

		booking := &entities.Booking{
			ID:            "b-1",
			PatientID:     "pat-1",
			Status:        entities.BookingStatusBooked,
			AppointmentAt: time.Now().Add(30 * time.Minute),
		}
		repo.On("GetOwned", mock.Anything, "b-1", "pat-1").Return(booking, nil)

		err := service.Cancel(context.Background(), "b-1", "pat-1")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		repo.AssertNotCalled(t, "Cancel")
	})

	t.Run("cancelling an already cancelled booking succeeds silently", func(t *testing.T) {
		repo := new(MockBookingRepository)
		service := services.NewBookingService(repo, new(MockDoctorRepository), nil, nil, 2, 60)

		booking := &entities.Booking{
			ID:            "b-1",
			PatientID:     "pat-1",
			Status:        entities.BookingStatusCancelled,
			AppointmentAt: time.Now().Add(30 * time.Minute),
		}
		repo.On("GetOwned", mock.Anything, "b-1", "pat-1").Return(booking, nil)
		repo.On("Cancel", mock.Anything, "b-1", "pat-1").Return(int64(0), nil)

		require.NoError(t, service.Cancel(context.Background(), "b-1", "pat-1"))
	})
}

func TestBookingService_Lists(t *testing.T) {
	t.Run("requires a patient identity", func(t *testing.T) {
		service := services.NewBookingService(new(MockBookingRepository), new(MockDoctorRepository), nil, nil, 2, 60)

		_, err := service.ListUpcoming(context.Background(), "")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
	})

	t.Run("passes the start of today to the repository", func(t *testing.T) {
		repo := new(MockBookingRepository)
		service := services.NewBookingService(repo, new(MockDoctorRepository), nil, nil, 2, 60)

		repo.On("ListUpcomingByPatient", mock.Anything, "pat-1", mock.MatchedBy(func(ts time.Time) bool {
			return ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0
		})).Return([]*entities.BookingListItem{}, nil)

		_, err := service.ListUpcoming(context.Background(), "pat-1")

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
