package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// DirectoryService manages the doctor and hospital directories and
// speciality search across them
type DirectoryService struct {
	doctorRepo   repositories.DoctorRepository
	hospitalRepo repositories.HospitalRepository
	searchRepo   repositories.DoctorSearchRepository
}

// NewDirectoryService creates a new directory service. searchRepo may
// be nil; search then falls back to the database.
func NewDirectoryService(
	doctorRepo repositories.DoctorRepository,
	hospitalRepo repositories.HospitalRepository,
	searchRepo repositories.DoctorSearchRepository,
) *DirectoryService {
	return &DirectoryService{
		doctorRepo:   doctorRepo,
		hospitalRepo: hospitalRepo,
		searchRepo:   searchRepo,
	}
}

// CreateDoctor registers a doctor under the admin's hospital and
// indexes them for speciality search
func (s *DirectoryService) CreateDoctor(ctx context.Context, hospitalID string, doctor *entities.Doctor) (*entities.Doctor, error) {
	if hospitalID == "" {
		return nil, apperrors.NewUnauthorizedError("missing hospital affiliation")
	}
	doctor.Name = strings.TrimSpace(doctor.Name)
	doctor.Speciality = strings.TrimSpace(doctor.Speciality)
	if doctor.Name == "" || doctor.Speciality == "" {
		return nil, apperrors.NewValidationError("doctor name and speciality are required")
	}
	if doctor.Fee < 0 {
		return nil, apperrors.NewValidationError("fee cannot be negative")
	}

	hospital, err := s.hospitalRepo.GetByID(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doctor.ID = uuid.New().String()
	doctor.HospitalID = hospital.ID
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, err
	}

	s.index(ctx, doctor, hospital)

	return doctor, nil
}

// GetDoctor retrieves a doctor by id
func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("doctor id is required")
	}
	return s.doctorRepo.GetByID(ctx, id)
}

// ListDoctors returns a hospital's roster
func (s *DirectoryService) ListDoctors(ctx context.Context, hospitalID string) ([]*entities.Doctor, error) {
	if hospitalID == "" {
		return nil, apperrors.NewUnauthorizedError("missing hospital affiliation")
	}
	return s.doctorRepo.ListByHospital(ctx, hospitalID)
}

// SearchHospitals finds hospitals employing doctors of a speciality,
// with per-hospital match counts. The search index answers when it is
// configured and healthy; the database answers otherwise.
func (s *DirectoryService) SearchHospitals(ctx context.Context, speciality, location string) ([]*entities.HospitalSearchResult, error) {
	speciality = strings.TrimSpace(speciality)
	if speciality == "" {
		return nil, apperrors.NewValidationError("speciality is required")
	}

	if s.searchRepo != nil {
		docs, err := s.searchRepo.Search(ctx, speciality, strings.TrimSpace(location))
		if err == nil {
			return groupBySpecialityHospital(docs), nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index unavailable, falling back to database")
	}

	return s.hospitalRepo.SearchBySpeciality(ctx, speciality, strings.TrimSpace(location))
}

// index pushes a doctor into the search index, best effort
func (s *DirectoryService) index(ctx context.Context, doctor *entities.Doctor, hospital *entities.Hospital) {
	if s.searchRepo == nil {
		return
	}

	logger := observability.LoggerFromContext(ctx)
	doc := &repositories.DoctorDocument{
		ID:               doctor.ID,
		Name:             doctor.Name,
		Speciality:       doctor.Speciality,
		HospitalID:       hospital.ID,
		HospitalName:     hospital.Name,
		HospitalEmail:    hospital.Email,
		HospitalLocation: hospital.Location,
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.searchRepo.Index(bgCtx, doc); err != nil {
			logger.Warn().Err(err).Str("doctor_id", doc.ID).Msg("failed to index doctor")
		}
	}()
}

// groupBySpecialityHospital collapses matched doctor documents into
// per-hospital results, preserving first-seen order
func groupBySpecialityHospital(docs []*repositories.DoctorDocument) []*entities.HospitalSearchResult {
	byHospital := make(map[string]*entities.HospitalSearchResult)
	var ordered []*entities.HospitalSearchResult

	for _, doc := range docs {
		result, ok := byHospital[doc.HospitalID]
		if !ok {
			result = &entities.HospitalSearchResult{
				ID:       doc.HospitalID,
				Name:     doc.HospitalName,
				Email:    doc.HospitalEmail,
				Location: doc.HospitalLocation,
			}
			byHospital[doc.HospitalID] = result
			ordered = append(ordered, result)
		}
		result.DoctorCount++
	}

	return ordered
}
