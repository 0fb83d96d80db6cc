package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

// errorResponse is the wire shape of every error reply. Code is set
// only for business-rule conflicts so clients can branch without
// matching message text.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message})
}

// respondWithAppError maps an application error onto an HTTP status.
// The daily quota is a client mistake, not a race, so it gets 400
// while slot occupancy gets 409.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		status = http.StatusConflict
		if appErr.Code == apperrors.CodeDailyLimit {
			status = http.StatusBadRequest
		}
	case apperrors.ErrorTypeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrorTypeExternal:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("request failed")
		respondWithJSON(w, status, errorResponse{Error: "internal server error", Code: appErr.Code})
		return
	}

	respondWithJSON(w, status, errorResponse{Error: appErr.Message, Code: appErr.Code})
}
