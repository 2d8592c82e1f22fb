package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/testerpub/internal/publisher"
)

// maxBodyBytes caps request bodies; envelopes are small progress updates.
const maxBodyBytes = 1 << 20

// EventPublisher is the subset of *publisher.Publisher the handlers use.
type EventPublisher interface {
	PublishEvent(ctx context.Context, sessionID string, payload any, event publisher.EventName) error
	LogAndPublish(ctx context.Context, entry publisher.LogEntry) error
	Channel(sessionID string) string
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	pub    EventPublisher
	logger *slog.Logger
}

// New creates a new API Server backed by the provided publisher.
func New(pub EventPublisher, logger *slog.Logger) *Server {
	return &Server{pub: pub, logger: logger}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/events", s.handlePublish)
	r.Post("/sessions/{sessionID}/events", s.handlePublish)
	r.Post("/logs", s.handleLogAndPublish)
	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writePublishError maps publisher errors onto HTTP statuses.
func (s *Server) writePublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, publisher.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, publisher.ErrTransportFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("publish failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to publish")
	}
}

// parseEvent reads an optional event name from raw JSON. Absent or null
// selects the default event; any non-string value is rejected.
func parseEvent(raw json.RawMessage) (publisher.EventName, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return publisher.DefaultEvent, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", &publisher.InvalidArgumentError{Field: "event", Message: "invalid JSON"}
	}
	return publisher.ParseEventName(v)
}
