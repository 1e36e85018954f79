package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/carematch/internal/domain/providers"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

// StreamHandler serves Server-Sent Events so a family can watch matches
// arrive while a run is in progress.
type StreamHandler struct {
	eventBus providers.EventBus
	patients repositories.PatientRepository

	heartbeat time.Duration
}

// NewStreamHandler creates a new match stream handler
func NewStreamHandler(eventBus providers.EventBus, patients repositories.PatientRepository) *StreamHandler {
	return &StreamHandler{
		eventBus:  eventBus,
		patients:  patients,
		heartbeat: 30 * time.Second,
	}
}

// StreamMatchUpdates handles SSE connections for a patient's match events
// GET /api/patients/{id}/matches/stream
func (h *StreamHandler) StreamMatchUpdates(w http.ResponseWriter, r *http.Request) {
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

	patient, err := h.patients.GetByID(r.Context(), patientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if patient.FamilyUserID != callerUserID {
		respondWithAppError(w, apperrors.NewUnauthorizedError("caller does not own this patient record"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context()).With().
		Str("patient_id", patientID).
		Logger()

	channel := providers.GetPatientChannel(patientID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to match events")
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe to match events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent(w, "connected", map[string]interface{}{
		"patient_id": patientID,
		"timestamp":  time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("client disconnected from match stream")
			return
		case <-ticker.C:
			sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, open := <-eventChan:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			sendEvent(w, event.Type, event)
			flusher.Flush()
		}
	}
}

// sendEvent writes one SSE frame to the client
func sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
