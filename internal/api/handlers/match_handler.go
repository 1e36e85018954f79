package handlers

import (
	"net/http"
	"strconv"

	"github.com/zatekoja/carematch/internal/application/services"
)

// MatchHandler handles matching-related HTTP requests
type MatchHandler struct {
	matchingService *services.MatchingService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchingService *services.MatchingService) *MatchHandler {
	return &MatchHandler{
		matchingService: matchingService,
	}
}

type matchRunResponse struct {
	Success        bool `json:"success"`
	MatchesCreated int  `json:"matchesCreated"`
	TotalMatches   int  `json:"totalMatches"`
	HasMore        bool `json:"hasMore"`
}

// RunMatching handles POST /api/patients/{id}/matches/run
func (h *MatchHandler) RunMatching(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	callerUserID := r.Header.Get("X-User-ID")
	if callerUserID == "" {
		respondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	result, err := h.matchingService.RunMatching(r.Context(), patientID, callerUserID, offset, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, matchRunResponse{
		Success:        true,
		MatchesCreated: result.MatchesCreated,
		TotalMatches:   result.TotalMatches,
		HasMore:        result.HasMore,
	})
}

// ListMatches handles GET /api/patients/{id}/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	callerUserID := r.Header.Get("X-User-ID")
	if callerUserID == "" {
		respondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	matches, err := h.matchingService.ListMatches(r.Context(), patientID, callerUserID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
