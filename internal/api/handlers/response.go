package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithAppError maps the application error taxonomy to HTTP statuses.
// Internal details never leak into the response body.
func respondWithAppError(w http.ResponseWriter, err error) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, err.Error())
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusForbidden, err.Error())
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
