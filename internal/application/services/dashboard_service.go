package services

import (
	"context"
	"time"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// newDoctorWindow is how far back a doctor still counts as new on the
// dashboard.
const newDoctorWindow = 7 * 24 * time.Hour

// DashboardService assembles the admin dashboard numbers
type DashboardService struct {
	bookingRepo repositories.BookingRepository
	doctorRepo  repositories.DoctorRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	bookingRepo repositories.BookingRepository,
	doctorRepo repositories.DoctorRepository,
) *DashboardService {
	return &DashboardService{
		bookingRepo: bookingRepo,
		doctorRepo:  doctorRepo,
	}
}

// Patients returns the hospital's patient roster: everyone with a
// non-cancelled booking, with their last visit and its token number
func (s *DashboardService) Patients(ctx context.Context, hospitalID string) ([]*entities.HospitalPatient, error) {
	if hospitalID == "" {
		return nil, apperrors.NewUnauthorizedError("missing hospital affiliation")
	}
	return s.bookingRepo.ListPatientsByHospital(ctx, hospitalID)
}

// Stats returns today's numbers for a hospital
func (s *DashboardService) Stats(ctx context.Context, hospitalID string) (*entities.DashboardStats, error) {
	if hospitalID == "" {
		return nil, apperrors.NewUnauthorizedError("missing hospital affiliation")
	}

	now := time.Now().UTC()
	dayStart := startOfToday(now)
	dayEnd := endOfToday(now)

	doctors, err := s.doctorRepo.CountByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	newDoctors, err := s.doctorRepo.CountByHospitalCreatedBetween(ctx, hospitalID, now.Add(-newDoctorWindow), dayEnd)
	if err != nil {
		return nil, err
	}

	bookingsToday, err := s.bookingRepo.CountByHospitalBetween(ctx, hospitalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	patientsToday, err := s.bookingRepo.CountDistinctPatientsBetween(ctx, hospitalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return &entities.DashboardStats{
		Doctors:       doctors,
		NewDoctors:    newDoctors,
		BookingsToday: bookingsToday,
		PatientsToday: patientsToday,
	}, nil
}
