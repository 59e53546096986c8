package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voice-session-orchestrator/internal/events"
	"voice-session-orchestrator/internal/service/session"
)

// NewRouter constructs the HTTP API: health probes, session inspection, the
// latest bus event and manual utterance injection.
func NewRouter(sess *session.Session, bus *events.Bus) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", func(w http.ResponseWriter, req *http.Request) {
			snap, err := sess.Snapshot(req.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Get("/events/latest", func(w http.ResponseWriter, _ *http.Request) {
			ev, ok := bus.Latest()
			if !ok {
				http.Error(w, `{"error": "no events published yet"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, ev)
		})

		// Manual text entry: injected text follows the same arbitration
		// path as recognized speech.
		r.Post("/utterance", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Text string `json:"text"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
				return
			}
			if body.Text == "" {
				http.Error(w, `{"error": "text is required"}`, http.StatusBadRequest)
				return
			}
			sess.Inject(body.Text)
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
