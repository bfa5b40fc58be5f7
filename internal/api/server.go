// Package api provides the HTTP API for explorer sessions.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fruitsalade/dfm/internal/auth"
	"github.com/fruitsalade/dfm/internal/config"
	"github.com/fruitsalade/dfm/internal/events"
	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/metrics"
	"github.com/fruitsalade/dfm/internal/session"
	"github.com/fruitsalade/dfm/pkg/protocol"
)

// Server is the HTTP API server.
type Server struct {
	sessions    *session.Manager
	broadcaster *events.Broadcaster
	auth        *auth.Auth // nil disables bearer checks
	config      *config.Config
}

// NewServer creates a new API server. authHandler may be nil. Events are
// only streamed when broadcaster is the one the session manager publishes to.
func NewServer(
	sessions *session.Manager,
	broadcaster *events.Broadcaster,
	authHandler *auth.Auth,
	cfg *config.Config,
) *Server {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if broadcaster == nil {
		broadcaster = events.NewBroadcaster()
	}
	return &Server{
		sessions:    sessions,
		broadcaster: broadcaster,
		auth:        authHandler,
		config:      cfg,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handleHealth)

	protected := http.NewServeMux()

	// Sessions
	protected.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	protected.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	protected.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleCloseSession)
	protected.HandleFunc("GET /api/v1/sessions/{id}/children", s.handleChildren)

	// Navigation
	protected.HandleFunc("POST /api/v1/sessions/{id}/navigate", s.handleNavigate)
	protected.HandleFunc("POST /api/v1/sessions/{id}/back", s.handleBack)
	protected.HandleFunc("POST /api/v1/sessions/{id}/forward", s.handleForward)
	protected.HandleFunc("POST /api/v1/sessions/{id}/up", s.handleUp)
	protected.HandleFunc("POST /api/v1/sessions/{id}/reload", s.handleReload)
	protected.HandleFunc("POST /api/v1/sessions/{id}/select", s.handleSelect)
	protected.HandleFunc("POST /api/v1/sessions/{id}/open", s.handleOpen)

	// Search
	protected.HandleFunc("GET /api/v1/sessions/{id}/search", s.handleSearch)
	protected.HandleFunc("GET /api/v1/sessions/{id}/paths", s.handlePaths)

	// Streams
	protected.HandleFunc("GET /api/v1/sessions/{id}/events", s.handleEvents)
	protected.HandleFunc("GET /api/v1/sessions/{id}/ws", s.handleWebSocket)

	protected.HandleFunc("GET /api/v1/display-options", s.handleDisplayOptions)

	var authed http.Handler = protected
	if s.auth != nil {
		authed = s.auth.Middleware(protected)
	}
	mux.Handle("/api/v1/", authed)

	return metrics.Middleware(logging.Middleware(mux))
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"version":  "1.0",
		"sessions": s.sessions.Count(),
	})
}

// ─── Display options ────────────────────────────────────────────────────────

func (s *Server) handleDisplayOptions(w http.ResponseWriter, r *http.Request) {
	raw := s.config.Display
	if r.URL.Query().Has("config") {
		raw = r.URL.Query().Get("config")
	}
	s.writeJSON(w, http.StatusOK, config.ParseDisplayOptions(raw))
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// session looks up the {id} path value, answering 404 itself on a miss.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.sendError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	logging.Annotate(r.Context(), logging.Session(sess.ID))
	return sess, true
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	s.sendError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
