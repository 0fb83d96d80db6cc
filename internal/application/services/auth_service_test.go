package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

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

func newAuthService(userRepo *MockUserRepository, hospitalRepo *MockHospitalRepository) *services.AuthService {
	return services.NewAuthService(userRepo, hospitalRepo, "test-secret", 24)
}

func TestAuthService_RegisterPatient(t *testing.T) {
	t.Run("hashes the password and stores the user", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newAuthService(userRepo, new(MockHospitalRepository))

		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
			return u.Role == entities.UserRolePatient &&
				u.Email == "amaka@example.com" &&
				u.PasswordHash != "s3cret-pass" &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")) == nil
		})).Return(nil)

		user, err := service.RegisterPatient(context.Background(), "Amaka", "Amaka@Example.com", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, "amaka@example.com", user.Email)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		service := newAuthService(new(MockUserRepository), new(MockHospitalRepository))

		_, err := service.RegisterPatient(context.Background(), "Amaka", "amaka@example.com", "short")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	})
}

func TestAuthService_RegisterHospital(t *testing.T) {
	userRepo := new(MockUserRepository)
	hospitalRepo := new(MockHospitalRepository)
	service := newAuthService(userRepo, hospitalRepo)

	hospitalRepo.On("Create", mock.Anything, mock.MatchedBy(func(h *entities.Hospital) bool {
		return h.Name == "St. Agnes" && h.ID != ""
	})).Return(nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
		return u.Role == entities.UserRoleHospitalAdmin && u.HospitalID != nil
	})).Return(nil)

	user, hospital, err := service.RegisterHospital(context.Background(), "Admin", "admin@stagnes.org", "longenough", "St. Agnes", "Lagos")

	require.NoError(t, err)
	assert.Equal(t, hospital.ID, *user.HospitalID)
	userRepo.AssertExpectations(t)
	hospitalRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &entities.User{
		ID:           "user-1",
		Email:        "amaka@example.com",
		PasswordHash: string(hash),
		Role:         entities.UserRolePatient,
	}

	t.Run("issues a verifiable token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newAuthService(userRepo, new(MockHospitalRepository))

		userRepo.On("GetByEmail", mock.Anything, "amaka@example.com").Return(stored, nil)

		token, user, err := service.Login(context.Background(), "amaka@example.com", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)

		principal, err := service.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.UserID)
		assert.Equal(t, entities.UserRolePatient, principal.Role)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newAuthService(userRepo, new(MockHospitalRepository))

		userRepo.On("GetByEmail", mock.Anything, "amaka@example.com").Return(stored, nil)

		_, _, err := service.Login(context.Background(), "amaka@example.com", "wrong")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
	})

	t.Run("hides whether the account exists", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := newAuthService(userRepo, new(MockHospitalRepository))

		userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, apperrors.NewNotFoundError("user not found"))

		_, _, err := service.Login(context.Background(), "nobody@example.com", "whatever")

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
	})
}

func TestAuthService_VerifyToken(t *testing.T) {
	service := newAuthService(new(MockUserRepository), new(MockHospitalRepository))

	_, err := service.VerifyToken("not-a-token")

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}
