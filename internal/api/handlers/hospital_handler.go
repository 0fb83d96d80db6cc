package handlers

import (
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/application/services"
)

// HospitalHandler handles hospital directory HTTP requests
type HospitalHandler struct {
	directoryService *services.DirectoryService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(directoryService *services.DirectoryService) *HospitalHandler {
	return &HospitalHandler{directoryService: directoryService}
}

// Search handles GET /api/hospitals/search
func (h *HospitalHandler) Search(w http.ResponseWriter, r *http.Request) {
	speciality := r.URL.Query().Get("speciality")
	location := r.URL.Query().Get("location")

	results, err := h.directoryService.SearchHospitals(r.Context(), speciality, location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": results,
		"count":     len(results),
	})
}
