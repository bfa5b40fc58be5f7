// Package session keeps the open explorers of a server: one navigation
// controller per session, all fed by a shared document loader.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fruitsalade/dfm/internal/events"
	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/metrics"
	"github.com/fruitsalade/dfm/internal/navigation"
	"github.com/fruitsalade/dfm/internal/source"
	"github.com/fruitsalade/dfm/pkg/models"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Loader is the document loading the manager depends on.
type Loader interface {
	Load(ctx context.Context, location string, force bool) (*source.Document, error)
}

// Session is one explorer bound to a document location.
type Session struct {
	ID         string
	Location   string
	Created    time.Time
	Controller *navigation.Controller

	mu  sync.Mutex
	seq uint64 // Seq of the document last applied to Controller
}

// apply hands doc to the controller unless a newer document was applied.
func (s *Session) apply(doc *source.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Seq < s.seq {
		return false
	}
	s.seq = doc.Seq
	s.Controller.Reload(doc.Root)
	return true
}

// Manager creates, finds and reloads sessions.
type Manager struct {
	loader Loader
	pub    *events.Broadcaster

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. pub may be nil when nobody streams events.
func NewManager(loader Loader, pub *events.Broadcaster) *Manager {
	return &Manager{
		loader:   loader,
		pub:      pub,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session on location, positioned at initial (or its nearest
// existing ancestor). It fails when the document cannot be loaded.
func (m *Manager) Create(ctx context.Context, location string, initial models.Path) (*Session, error) {
	id := uuid.NewString()

	var pub navigation.Publisher
	if m.pub != nil {
		pub = m.pub
	}
	s := &Session{
		ID:         id,
		Location:   location,
		Created:    time.Now(),
		Controller: navigation.New(id, pub),
	}
	s.Controller.NavigateTo(initial, false)

	doc, err := m.loader.Load(ctx, location, false)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	s.apply(doc)

	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.SetSessionsActive(count)
	logging.Info("session created",
		logging.Session(id),
		logging.Location(location),
		logging.Int("items", doc.Items),
	)
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close removes the session with id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	metrics.SetSessionsActive(count)
	logging.Info("session closed", logging.Session(id))
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reload refetches the session's document. On failure the previous tree
// stays in place and a load_failed event is published.
func (m *Manager) Reload(ctx context.Context, id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	doc, err := m.loader.Load(ctx, s.Location, true)
	if errors.Is(err, source.ErrSuperseded) {
		return s, nil
	}
	if err != nil {
		m.publishFailure(s, err)
		return s, err
	}
	s.apply(doc)
	return s, nil
}

// ReloadLocation refetches location once and applies the result to every
// session showing it. It is used when a watched document changes.
func (m *Manager) ReloadLocation(ctx context.Context, location string) error {
	sessions := m.byLocation(location)
	doc, err := m.loader.Load(ctx, location, true)
	if errors.Is(err, source.ErrSuperseded) {
		return nil
	}
	if err != nil {
		for _, s := range sessions {
			m.publishFailure(s, err)
		}
		return err
	}
	for _, s := range sessions {
		s.apply(doc)
	}
	logging.Info("document reloaded",
		logging.Location(location),
		logging.Int("sessions", len(sessions)),
	)
	return nil
}

func (m *Manager) byLocation(location string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.Location == location {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) publishFailure(s *Session, err error) {
	logging.Warn("reload failed",
		logging.Session(s.ID),
		logging.Location(s.Location),
		logging.Err(err),
	)
	if m.pub == nil {
		return
	}
	m.pub.Publish(events.Event{
		Type:    events.EventLoadFailed,
		Session: s.ID,
		Path:    s.Controller.Current().String(),
		Error:   err.Error(),
	})
}
