// This file wires the HTTP server: routing, auth, rate limits, handlers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/models"
	"github.com/ahals42/Reframing-Retirement-AI-Coach/internal/store"
)

// Config assembles a Server's dependencies.
type Config struct {
	// Auth validates API keys; required.
	Auth *APIKeyAuth
	// Registry owns live sessions; required.
	Registry *store.SessionRegistry
	// Store persists conversation snapshots; nil disables persistence.
	Store store.Store
	// MessagesPerHour is the per-key rate limit on message turns; 0 selects
	// the default.
	MessagesPerHour int
	// MaxMessageLength bounds one user message; 0 selects the default.
	MaxMessageLength int
}

// Server handles the coach HTTP surface.
type Server struct {
	auth             *APIKeyAuth
	registry         *store.SessionRegistry
	st               store.Store
	limiter          *rateLimiter
	maxMessageLength int
}

// NewServer creates a Server from cfg.
func NewServer(cfg Config) *Server {
	maxLen := cfg.MaxMessageLength
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &Server{
		auth:             cfg.Auth,
		registry:         cfg.Registry,
		st:               cfg.Store,
		limiter:          newRateLimiter(cfg.MessagesPerHour, time.Hour),
		maxMessageLength: maxLen,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthHandler)
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/messages", s.messageHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	return mux
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	slog.Info("Coach API listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// authenticate validates the request's API key, writing the 401 response
// itself on failure. Returns the key's tracking hash.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := keyFromRequest(r)
	if key == "" {
		slog.Warn("Authentication failed: missing API key", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("WWW-Authenticate", "ApiKey")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Missing API key. Provide X-API-Key header."))
		return "", false
	}
	if !s.auth.Validate(key) {
		slog.Warn("Authentication failed: invalid API key", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("WWW-Authenticate", "ApiKey")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid API key"))
		return "", false
	}
	return hashAPIKey(key), true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.OK(""))
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	keyHash, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	sessionID, err := s.registry.Create(keyHash)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRegistryFull):
			writeJSONResponse(w, http.StatusServiceUnavailable, models.Error(err.Error()))
		case errors.Is(err, store.ErrAPIKeyQuota):
			writeJSONResponse(w, http.StatusTooManyRequests, models.Error(err.Error()))
		default:
			slog.Error("createSessionHandler failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SessionCreateResponse{SessionID: sessionID})
}

// getSessionHandler returns the persisted snapshot of a conversation. Live
// sessions that have not completed a turn yet have no snapshot and report 404.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	if s.st == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Snapshot persistence is disabled"))
		return
	}

	sessionID := r.PathValue("id")
	snapshot, err := s.st.GetConversationSnapshot(sessionID)
	if err != nil {
		slog.Error("getSessionHandler failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if snapshot == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	sessionID := r.PathValue("id")
	s.registry.Delete(sessionID)
	if s.st != nil {
		if err := s.st.DeleteConversationSnapshot(sessionID); err != nil {
			slog.Error("deleteSessionHandler snapshot delete failed", "error", err, "sessionID", sessionID)
		}
	}
	writeJSONResponse(w, http.StatusOK, models.DeleteSessionResponse{Message: "Session cleared"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, s.registry.Stats())
}

// messageHandler streams one coach turn as newline-delimited JSON events:
// token events while the reply generates, then a done event carrying the full
// reply and the conversation state snapshot. Errors mid-stream become an
// error event since the status line is already written.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	keyHash, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.limiter.Allow(keyHash) {
		slog.Warn("Rate limit exceeded", "path", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		writeJSONResponse(w, http.StatusTooManyRequests, models.Error("Too many requests. Please slow down."))
		return
	}

	record := s.registry.Get(r.PathValue("id"))
	if record == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session"))
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	text, err := validateMessageText(req.Text, s.maxMessageLength)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	reply, err := record.Agent.StreamRespond(r.Context(), text, func(token string) {
		writeStreamEvent(w, flusher, models.StreamEvent{Type: "token", Text: token})
	})
	if err != nil {
		slog.Error("messageHandler turn failed", "error", err)
		writeStreamEvent(w, flusher, models.StreamEvent{Type: "error", Error: err.Error()})
		return
	}

	writeStreamEvent(w, flusher, models.StreamEvent{
		Type:  "done",
		Text:  reply,
		State: record.Agent.Snapshot(),
	})

	s.persistSnapshot(r.PathValue("id"), record)
}

// persistSnapshot writes the conversation through the store, best effort.
func (s *Server) persistSnapshot(sessionID string, record *store.SessionRecord) {
	if s.st == nil {
		return
	}
	snapshot := models.ConversationSnapshot{
		SessionID:    sessionID,
		State:        record.Agent.State(),
		History:      record.Agent.History(),
		MessageCount: record.MessageCount,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.st.SaveConversationSnapshot(snapshot); err != nil {
		slog.Error("persistSnapshot failed", "error", err, "sessionID", sessionID)
	}
}

// writeStreamEvent writes one event line and flushes it to the client.
func writeStreamEvent(w http.ResponseWriter, flusher http.Flusher, event models.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("writeStreamEvent marshal failed", "error", err, "type", event.Type)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Error("writeStreamEvent write failed", "error", err)
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}
