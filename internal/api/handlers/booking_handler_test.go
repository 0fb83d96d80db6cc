package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint-health/appointments/backend/internal/api/handlers"
	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/api/routes"
	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// Mocks for the repositories the wired services sit on.

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

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) Upsert(ctx context.Context, slot *entities.Slot) (*entities.Slot, error) {
	args := m.Called(ctx, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Slot), args.Error(1)
}

func (m *MockSlotRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSlotRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Slot, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Slot), args.Error(1)
}

type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) Upsert(ctx context.Context, availability *entities.Availability) (*entities.Availability, error) {
	args := m.Called(ctx, availability)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Availability), args.Error(1)
}

func (m *MockAvailabilityRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*entities.Availability, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Availability), args.Error(1)
}

type MockHospitalRepository struct {
	mock.Mock
}

func (m *MockHospitalRepository) Create(ctx context.Context, hospital *entities.Hospital) error {
	args := m.Called(ctx, hospital)
	return args.Error(0)
}

func (m *MockHospitalRepository) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Hospital), args.Error(1)
}

func (m *MockHospitalRepository) SearchBySpeciality(ctx context.Context, speciality, location string) ([]*entities.HospitalSearchResult, error) {
	args := m.Called(ctx, speciality, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HospitalSearchResult), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// testEnv wires real services and the full router over mocked
// repositories, so requests pass through the auth middleware exactly
// as they would in production.
type testEnv struct {
	handler     http.Handler
	bookingRepo *MockBookingRepository
	doctorRepo  *MockDoctorRepository
	authService *services.AuthService
	userRepo    *MockUserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	bookingRepo := new(MockBookingRepository)
	doctorRepo := new(MockDoctorRepository)
	slotRepo := new(MockSlotRepository)
	availabilityRepo := new(MockAvailabilityRepository)
	hospitalRepo := new(MockHospitalRepository)
	userRepo := new(MockUserRepository)

	authService := services.NewAuthService(userRepo, hospitalRepo, "test-secret", 1)
	bookingService := services.NewBookingService(bookingRepo, doctorRepo, nil, nil, 2, 60)
	scheduleService := services.NewScheduleService(slotRepo, availabilityRepo, doctorRepo)
	directoryService := services.NewDirectoryService(doctorRepo, hospitalRepo, nil)
	dashboardService := services.NewDashboardService(bookingRepo, doctorRepo)

	router := routes.NewRouter(
		handlers.NewAuthHandler(authService),
		handlers.NewBookingHandler(bookingService),
		handlers.NewDoctorHandler(directoryService, scheduleService),
		handlers.NewHospitalHandler(directoryService),
		handlers.NewDashboardHandler(dashboardService),
		middleware.NewAuthMiddleware(authService),
		nil,
	)

	return &testEnv{
		handler:     router.SetupRoutes(),
		bookingRepo: bookingRepo,
		doctorRepo:  doctorRepo,
		authService: authService,
		userRepo:    userRepo,
	}
}

// patientToken logs a canned patient in and returns the bearer token
func (e *testEnv) patientToken(t *testing.T) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	e.userRepo.On("GetByEmail", mock.Anything, "pat@example.com").Return(&entities.User{
		ID:           "pat-1",
		Email:        "pat@example.com",
		PasswordHash: string(hash),
		Role:         entities.UserRolePatient,
	}, nil)

	token, _, err := e.authService.Login(context.Background(), "pat@example.com", "s3cret-pass")
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func bookPayload() map[string]string {
	return map[string]string{
		"doctor_id": "doc-1",
		"date":      time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02"),
		"slot_time": "10:30 AM",
	}
}

func TestBookingEndpoints(t *testing.T) {
	t.Run("rejects booking without a token", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/api/bookings", "", bookPayload())

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("books a slot and returns the token number", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.patientToken(t)

		env.doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(&entities.Doctor{
			ID:         "doc-1",
			HospitalID: "hosp-1",
			Name:       "Dr. Adaeze Obi",
			Speciality: "Cardiology",
		}, nil)
		env.bookingRepo.On("Book", mock.Anything, mock.Anything, 2).
			Run(func(args mock.Arguments) {
				b := args.Get(1).(*entities.Booking)
				b.ID = "b-1"
				b.TokenNumber = 5
				b.Status = entities.BookingStatusBooked
			}).Return(nil)

		w := env.do(t, http.MethodPost, "/api/bookings", token, bookPayload())

		require.Equal(t, http.StatusCreated, w.Code)

		var booking entities.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
		assert.Equal(t, 5, booking.TokenNumber)
		assert.Equal(t, entities.BookingStatusBooked, booking.Status)
	})

	t.Run("maps the daily quota to 400 with its code", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.patientToken(t)

		env.doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(&entities.Doctor{ID: "doc-1", HospitalID: "hosp-1"}, nil)
		env.bookingRepo.On("Book", mock.Anything, mock.Anything, 2).
			Return(apperrors.NewDailyLimitError("you can only book 2 appointments per day"))

		w := env.do(t, http.MethodPost, "/api/bookings", token, bookPayload())

		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, apperrors.CodeDailyLimit, resp["code"])
	})

	t.Run("maps an occupied slot to 409 with its code", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.patientToken(t)

		env.doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(&entities.Doctor{ID: "doc-1", HospitalID: "hosp-1"}, nil)
		env.bookingRepo.On("Book", mock.Anything, mock.Anything, 2).
			Return(apperrors.NewSlotTakenError("this slot is already booked"))

		w := env.do(t, http.MethodPost, "/api/bookings", token, bookPayload())

		require.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, apperrors.CodeSlotTaken, resp["code"])
	})

	t.Run("cancelling an unknown booking still returns 200", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.patientToken(t)

		env.bookingRepo.On("GetOwned", mock.Anything, "ghost", "pat-1").
			Return(nil, apperrors.NewNotFoundError("booking ghost not found for patient"))

		w := env.do(t, http.MethodPost, "/api/bookings/ghost/cancel", token, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDoctorEndpoints(t *testing.T) {
	t.Run("returns a doctor", func(t *testing.T) {
		env := newTestEnv(t)

		env.doctorRepo.On("GetByID", mock.Anything, "doc-1").Return(&entities.Doctor{
			ID:         "doc-1",
			HospitalID: "hosp-1",
			Name:       "Dr. Adaeze Obi",
		}, nil)

		w := env.do(t, http.MethodGet, "/api/doctors/doc-1", "", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var doctor entities.Doctor
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doctor))
		assert.Equal(t, "Dr. Adaeze Obi", doctor.Name)
	})

	t.Run("maps an unknown doctor to 404", func(t *testing.T) {
		env := newTestEnv(t)

		env.doctorRepo.On("GetByID", mock.Anything, "ghost").
			Return(nil, apperrors.NewNotFoundError("doctor with id ghost not found"))

		w := env.do(t, http.MethodGet, "/api/doctors/ghost", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("keeps patients out of admin endpoints", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.patientToken(t)

		w := env.do(t, http.MethodGet, "/api/admin/dashboard", token, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
