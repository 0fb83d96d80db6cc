package handlers

import (
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/application/services"
)

// DashboardHandler handles admin dashboard HTTP requests
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats handles GET /api/admin/dashboard
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), principal.HospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// ListPatients handles GET /api/admin/patients
func (h *DashboardHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	patients, err := h.dashboardService.Patients(r.Context(), principal.HospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patients)
}
