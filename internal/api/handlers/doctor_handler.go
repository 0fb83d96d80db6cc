package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/application/services"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
)

// DoctorHandler handles doctor directory and schedule HTTP requests
type DoctorHandler struct {
	directoryService *services.DirectoryService
	scheduleService  *services.ScheduleService
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(directoryService *services.DirectoryService, scheduleService *services.ScheduleService) *DoctorHandler {
	return &DoctorHandler{
		directoryService: directoryService,
		scheduleService:  scheduleService,
	}
}

type createDoctorRequest struct {
	Name           string  `json:"name"`
	Speciality     string  `json:"speciality"`
	Fee            float64 `json:"fee"`
	AvailableToday bool    `json:"available_today"`
}

type createSlotRequest struct {
	DoctorID string `json:"doctor_id"`
	SlotTime string `json:"slot_time"`
}

type setAvailabilityRequest struct {
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// GetDoctor handles GET /api/doctors/{id}
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	doctor, err := h.directoryService.GetDoctor(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}

// GetSlots handles GET /api/doctors/{id}/slots
func (h *DoctorHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	slots, err := h.scheduleService.ListSlots(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slots": slots,
		"count": len(slots),
	})
}

// GetAvailability handles GET /api/doctors/{id}/availability
func (h *DoctorHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := r.PathValue("id")
	if doctorID == "" {
		respondWithError(w, http.StatusBadRequest, "doctor ID is required")
		return
	}

	availability, err := h.scheduleService.GetAvailability(r.Context(), doctorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"availability": availability,
		"count":        len(availability),
	})
}

// CreateDoctor handles POST /api/admin/doctors
func (h *DoctorHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doctor, err := h.directoryService.CreateDoctor(r.Context(), principal.HospitalID, &entities.Doctor{
		Name:           req.Name,
		Speciality:     req.Speciality,
		Fee:            req.Fee,
		AvailableToday: req.AvailableToday,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, doctor)
}

// ListDoctors handles GET /api/admin/doctors
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	doctors, err := h.directoryService.ListDoctors(r.Context(), principal.HospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// CreateSlot handles POST /api/admin/slots
func (h *DoctorHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, err := h.scheduleService.UpsertSlot(r.Context(), principal.HospitalID, req.DoctorID, req.SlotTime)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, slot)
}

// DeleteSlot handles DELETE /api/admin/slots/{id}
func (h *DoctorHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("id")
	if slotID == "" {
		respondWithError(w, http.StatusBadRequest, "slot ID is required")
		return
	}

	if err := h.scheduleService.DeleteSlot(r.Context(), slotID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetAvailability handles POST /api/admin/availability
func (h *DoctorHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	availability, err := h.scheduleService.SetAvailability(r.Context(), principal.HospitalID, req.DoctorID, req.Date, req.Available)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, availability)
}
