package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// AuthHandler handles registration and login HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerPatientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerHospitalRequest struct {
	AdminName    string `json:"admin_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	HospitalName string `json:"hospital_name"`
	Location     string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// RegisterPatient handles POST /api/auth/register
func (h *AuthHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.RegisterPatient(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

// RegisterHospital handles POST /api/auth/register-hospital
func (h *AuthHandler) RegisterHospital(w http.ResponseWriter, r *http.Request) {
	var req registerHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, hospital, err := h.authService.RegisterHospital(r.Context(), req.AdminName, req.Email, req.Password, req.HospitalName, req.Location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"user":     user,
		"hospital": hospital,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
