// Package protocol defines the API request/response types.
package protocol

import (
	"time"

	"github.com/fruitsalade/dfm/pkg/models"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// CreateSessionRequest is the body for POST /api/v1/sessions.
// An empty Source uses the server's configured document. Any other value
// must be that document or one the server allow-lists.
type CreateSessionRequest struct {
	Source string `json:"source,omitempty"`
	Path   string `json:"path,omitempty"`
}

// SessionResponse describes a session's navigation state.
type SessionResponse struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Path       models.Path    `json:"path"`
	PathText   string         `json:"path_text"`
	CanBack    bool           `json:"can_back"`
	CanForward bool           `json:"can_forward"`
	HistoryLen int            `json:"history_len"`
	Cursor     int            `json:"cursor"`
	Loaded     bool           `json:"loaded"`
	Items      int            `json:"items"`
	Selected   *EntryResponse `json:"selected,omitempty"`
}

// EntryResponse is a single visible child of a folder.
type EntryResponse struct {
	Kind      models.Kind `json:"kind"`
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Size      *int64      `json:"size,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
	Location  string      `json:"location,omitempty"`
	URL       string      `json:"url,omitempty"` // Location resolved against the document
}

// ChildrenResponse is returned by GET /api/v1/sessions/{id}/children.
type ChildrenResponse struct {
	Path    string          `json:"path"`
	Entries []EntryResponse `json:"entries"`
}

// MatchResponse is a search hit or autocomplete candidate. It is also the
// body for POST /api/v1/sessions/{id}/open.
type MatchResponse struct {
	Kind         models.Kind `json:"kind"`
	Name         string      `json:"name"`
	PathSegments models.Path `json:"path_segments"`
	FullPath     string      `json:"full_path,omitempty"`
	DisplayPath  string      `json:"display_path,omitempty"`
}

// MatchListResponse is returned by the search and paths endpoints.
type MatchListResponse struct {
	Query   string          `json:"query"`
	Results []MatchResponse `json:"results"`
}

// NavigateRequest is the body for POST /api/v1/sessions/{id}/navigate.
type NavigateRequest struct {
	Path string `json:"path"`
}

// SelectRequest is the body for POST /api/v1/sessions/{id}/select.
type SelectRequest struct {
	Name string `json:"name"`
}

// Match converts a model record for the wire.
func Match(rec models.MatchRecord) MatchResponse {
	return MatchResponse{
		Kind:         rec.Kind,
		Name:         rec.Name,
		PathSegments: rec.PathSegments,
		FullPath:     rec.FullPath,
		DisplayPath:  rec.DisplayPath,
	}
}

// Record converts a wire match back into a model record (without a node).
func (m MatchResponse) Record() models.MatchRecord {
	return models.MatchRecord{
		Kind:         m.Kind,
		Name:         m.Name,
		PathSegments: m.PathSegments.Clone(),
		FullPath:     m.FullPath,
		DisplayPath:  m.DisplayPath,
	}
}
