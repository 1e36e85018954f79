package routes

import (
	"net/http"

	"github.com/zatekoja/carematch/internal/api/handlers"
	"github.com/zatekoja/carematch/internal/api/middleware"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	matchHandler  *handlers.MatchHandler
	streamHandler *handlers.StreamHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. streamHandler may be nil when the event
// bus is unavailable; the stream route is simply not registered.
func NewRouter(matchHandler *handlers.MatchHandler, streamHandler *handlers.StreamHandler, metrics *observability.Metrics) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		matchHandler:  matchHandler,
		streamHandler: streamHandler,
		metrics:       metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Matching endpoints
	r.mux.HandleFunc("POST /api/patients/{id}/matches/run", r.matchHandler.RunMatching)
	r.mux.HandleFunc("GET /api/patients/{id}/matches", r.matchHandler.ListMatches)

	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/patients/{id}/matches/stream", r.streamHandler.StreamMatchUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so error responses also carry CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.CORSMiddleware(handler)

	return handler
}
