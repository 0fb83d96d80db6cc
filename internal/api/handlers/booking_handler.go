package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/application/services"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type bookRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	SlotTime string `json:"slot_time"`
}

// Book handles POST /api/bookings
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.bookingService.Book(r.Context(), principal.UserID, req.DoctorID, req.Date, req.SlotTime)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookingID := r.PathValue("id")
	if bookingID == "" {
		respondWithError(w, http.StatusBadRequest, "booking ID is required")
		return
	}

	if err := h.bookingService.Cancel(r.Context(), bookingID, principal.UserID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ListMine handles GET /api/me/appointments
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListUpcoming(r.Context(), principal.UserID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ListMyHistory handles GET /api/me/history
func (h *BookingHandler) ListMyHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListHistory(r.Context(), principal.UserID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ListForHospital handles GET /api/admin/bookings
func (h *BookingHandler) ListForHospital(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListForHospital(r.Context(), principal.HospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
