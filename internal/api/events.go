package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/testerpub/internal/logger"
	"github.com/shaharia-lab/testerpub/internal/publisher"
)

type publishRequest struct {
	SessionID string          `json:"session_id"`
	Event     json.RawMessage `json:"event"`
	Data      json.RawMessage `json:"data"`
}

type publishResponse struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
}

type logRequest struct {
	SessionID string          `json:"session_id"`
	Level     string          `json:"level"`
	Text      string          `json:"text"`
	Tags      []string        `json:"tags"`
	Event     json.RawMessage `json:"event"`
}

// handlePublish serves both /events and /sessions/{sessionID}/events; the
// path parameter wins over session_id in the body.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if id := chi.URLParam(r, "sessionID"); id != "" {
		req.SessionID = id
	}

	event, err := parseEvent(req.Event)
	if err != nil {
		s.writePublishError(w, err)
		return
	}

	// The raw data is forwarded verbatim so numbers and nested objects keep
	// their exact encoding.
	var payload any = req.Data
	if len(req.Data) == 0 {
		payload = nil
	}
	if err := s.pub.PublishEvent(r.Context(), req.SessionID, payload, event); err != nil {
		s.writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, publishResponse{Channel: s.pub.Channel(req.SessionID), Event: event.String()})
}

func (s *Server) handleLogAndPublish(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	levelName := req.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event, err := parseEvent(req.Event)
	if err != nil {
		s.writePublishError(w, err)
		return
	}

	err = s.pub.LogAndPublish(r.Context(), publisher.LogEntry{
		SessionID: req.SessionID,
		Level:     level,
		Text:      req.Text,
		Tags:      req.Tags,
		Event:     event,
	})
	if err != nil {
		s.writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, publishResponse{Channel: s.pub.Channel(req.SessionID), Event: event.String()})
}
