package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// Principal is the authenticated identity carried through a request
type Principal struct {
	UserID     string
	Role       entities.UserRole
	HospitalID string
}

// AuthService handles registration, login and token verification
type AuthService struct {
	userRepo     repositories.UserRepository
	hospitalRepo repositories.HospitalRepository
	secret       []byte
	tokenTTL     time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	hospitalRepo repositories.HospitalRepository,
	jwtSecret string,
	tokenTTLHours int,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		hospitalRepo: hospitalRepo,
		secret:       []byte(jwtSecret),
		tokenTTL:     time.Duration(tokenTTLHours) * time.Hour,
	}
}

// RegisterPatient creates a patient account
func (s *AuthService) RegisterPatient(ctx context.Context, name, email, password string) (*entities.User, error) {
	user, err := s.newUser(name, email, password, entities.UserRolePatient, nil)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterHospital creates a hospital together with its admin account
func (s *AuthService) RegisterHospital(ctx context.Context, adminName, email, password, hospitalName, location string) (*entities.User, *entities.Hospital, error) {
	hospitalName = strings.TrimSpace(hospitalName)
	if hospitalName == "" {
		return nil, nil, apperrors.NewValidationError("hospital name is required")
	}

	hospital := &entities.Hospital{
		ID:        uuid.New().String(),
		Name:      hospitalName,
		Email:     normalizeEmail(email),
		Location:  strings.TrimSpace(location),
		CreatedAt: time.Now().UTC(),
	}

	user, err := s.newUser(adminName, email, password, entities.UserRoleHospitalAdmin, &hospital.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	return user, hospital, nil
}

// Login verifies credentials and issues a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *entities.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Type == apperrors.ErrorTypeNotFound {
			return "", nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to sign token", err)
	}

	return token, user, nil
}

// VerifyToken parses a signed token back into a principal
func (s *AuthService) VerifyToken(tokenString string) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.NewUnauthorizedError("invalid token claims")
	}

	principal := &Principal{}
	if sub, err := claims.GetSubject(); err == nil {
		principal.UserID = sub
	}
	if role, ok := claims["role"].(string); ok {
		principal.Role = entities.UserRole(role)
	}
	if hospitalID, ok := claims["hospital_id"].(string); ok {
		principal.HospitalID = hospitalID
	}

	if principal.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("invalid token claims")
	}

	return principal, nil
}

func (s *AuthService) issueToken(user *entities.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	if user.HospitalID != nil {
		claims["hospital_id"] = *user.HospitalID
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) newUser(name, email, password string, role entities.UserRole, hospitalID *string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email is not valid")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	return &entities.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		HospitalID:   hospitalID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
