package api

import (
	"errors"
	"net/http"

	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/session"
	"github.com/fruitsalade/dfm/internal/source"
	"github.com/fruitsalade/dfm/pkg/models"
	"github.com/fruitsalade/dfm/pkg/protocol"
	"github.com/fruitsalade/dfm/pkg/tree"
)

// ─── Session lifecycle ──────────────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateSessionRequest
	if !s.decode(w, r, &req, true) {
		return
	}
	location := req.Source
	if location == "" {
		location = s.config.Source
	}
	if location == "" {
		s.sendError(w, http.StatusBadRequest, "source required")
		return
	}
	if !s.config.SourceAllowed(location) {
		logging.WithContext(r.Context()).Warn("rejected session source",
			logging.Location(location),
		)
		s.sendError(w, http.StatusBadRequest, "source not allowed")
		return
	}

	sess, err := s.sessions.Create(r.Context(), location, tree.ParseTypedPath(req.Path))
	if err != nil {
		s.sendLoadError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.PathValue("id")); err != nil {
		s.sendError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Listing ────────────────────────────────────────────────────────────────

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	current := sess.Controller.Current()
	children := sess.Controller.Children()
	switch r.URL.Query().Get("sort") {
	case "":
	case "updated":
		tree.SortByUpdated(children)
	default:
		s.sendError(w, http.StatusBadRequest, "unknown sort order")
		return
	}

	base := s.locationBase(sess)
	entries := make([]protocol.EntryResponse, 0, len(children))
	for _, n := range children {
		entries = append(entries, entry(n, current, base))
	}
	s.writeJSON(w, http.StatusOK, protocol.ChildrenResponse{
		Path:    current.String(),
		Entries: entries,
	})
}

// ─── Navigation ─────────────────────────────────────────────────────────────

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req protocol.NavigateRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	sess.Controller.NavigateText(req.Path)
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Back()
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Forward()
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleUp(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Controller.Up()
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reload(r.Context(), r.PathValue("id"))
	if errors.Is(err, session.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.sendLoadError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req protocol.SelectRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	sess.Controller.Select(req.Name)
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req protocol.MatchResponse
	if !s.decode(w, r, &req, false) {
		return
	}
	if req.Kind != models.KindFolder && req.Kind != models.KindFile {
		s.sendError(w, http.StatusBadRequest, "kind must be folder or file")
		return
	}
	sess.Controller.Open(req.Record())
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

// ─── Search ─────────────────────────────────────────────────────────────────

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	s.writeJSON(w, http.StatusOK, matchList(q, sess.Controller.Search(q)))
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	s.writeJSON(w, http.StatusOK, matchList(q, sess.Controller.Paths(q)))
}

func matchList(q string, recs []models.MatchRecord) protocol.MatchListResponse {
	results := make([]protocol.MatchResponse, 0, len(recs))
	for _, rec := range recs {
		results = append(results, protocol.Match(rec))
	}
	return protocol.MatchListResponse{Query: q, Results: results}
}

// ─── Conversion ─────────────────────────────────────────────────────────────

func (s *Server) sessionResponse(sess *session.Session) protocol.SessionResponse {
	snap := sess.Controller.Snapshot()
	resp := protocol.SessionResponse{
		ID:         sess.ID,
		Source:     sess.Location,
		Path:       snap.Path,
		PathText:   snap.Path.String(),
		CanBack:    snap.CanGoBack,
		CanForward: snap.CanGoForward,
		HistoryLen: snap.HistoryLen,
		Cursor:     snap.Cursor,
		Loaded:     snap.Loaded,
		Items:      snap.Items,
	}
	if snap.Selected != nil {
		e := entry(snap.Selected, snap.Path, s.locationBase(sess))
		resp.Selected = &e
	}
	return resp
}

// locationBase is what relative file locations resolve against.
func (s *Server) locationBase(sess *session.Session) string {
	if s.config.BaseURL != "" {
		return s.config.BaseURL
	}
	return sess.Location
}

func entry(n *models.Node, parent models.Path, base string) protocol.EntryResponse {
	e := protocol.EntryResponse{
		Kind: n.Kind,
		Name: n.Name,
		Path: parent.Child(n.Name).String(),
	}
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		e.UpdatedAt = &t
	}
	if n.IsFile() {
		if n.HasSize {
			size := n.Size
			e.Size = &size
		}
		if n.Location != "" {
			e.Location = n.Location
			e.URL = source.ResolveLocation(n.Location, base)
		}
	}
	return e
}

// sendLoadError maps a failed document load to a status code.
func (s *Server) sendLoadError(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithContext(r.Context()).Warn("document load failed", logging.Err(err))

	var perr *tree.ParseError
	switch {
	case errors.Is(err, source.ErrNotFound):
		s.sendError(w, http.StatusNotFound, "document not found")
	case errors.As(err, &perr):
		s.sendError(w, http.StatusBadGateway, perr.Error())
	case errors.Is(err, source.ErrInvalidLocation):
		s.sendError(w, http.StatusBadRequest, err.Error())
	default:
		s.sendError(w, http.StatusBadGateway, "failed to load document")
	}
}
