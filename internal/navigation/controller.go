// Package navigation tracks where a user is inside an explorer tree: the
// current folder, back/forward history and the selected file.
package navigation

import (
	"sync"

	"github.com/fruitsalade/dfm/internal/events"
	"github.com/fruitsalade/dfm/internal/metrics"
	"github.com/fruitsalade/dfm/pkg/models"
	"github.com/fruitsalade/dfm/pkg/tree"
)

// Publisher receives the controller's change notifications.
type Publisher interface {
	Publish(events.Event)
}

// Controller holds one explorer's navigation state. All methods are safe
// for concurrent use; events are published after the state lock is released.
type Controller struct {
	id  string
	pub Publisher

	mu       sync.RWMutex
	root     *models.Node
	current  models.Path
	history  []models.Path
	cursor   int // -1 while history is empty
	selected *models.Node
}

// Snapshot is a copy of a controller's observable state.
type Snapshot struct {
	ID           string
	Path         models.Path
	CanGoBack    bool
	CanGoForward bool
	HistoryLen   int
	Cursor       int
	Loaded       bool
	Items        int
	Selected     *models.Node
}

// New creates a controller with no tree, positioned at the root. pub may be nil.
func New(id string, pub Publisher) *Controller {
	return &Controller{
		id:      id,
		pub:     pub,
		current: models.Path{},
		cursor:  -1,
	}
}

// ID returns the identifier events are tagged with.
func (c *Controller) ID() string { return c.id }

// NavigateTo makes path current, falling back to its nearest existing
// ancestor once a tree is loaded. With record set, forward history is
// discarded and path is appended.
func (c *Controller) NavigateTo(path models.Path, record bool) {
	c.mu.Lock()
	target := path.Clone()
	if c.root != nil {
		target = tree.ResolveOrFallback(c.root, target)
	}
	c.current = target
	if record {
		c.history = append(c.history[:c.cursor+1], target.Clone())
		c.cursor = len(c.history) - 1
	}
	c.selected = nil
	ev := c.eventLocked(events.EventLocationChanged)
	c.mu.Unlock()

	metrics.RecordNavigation("navigate")
	c.publish(ev)
}

// NavigateText navigates to a typed "/a/b" path.
func (c *Controller) NavigateText(text string) {
	c.NavigateTo(tree.ParseTypedPath(text), true)
}

// Up navigates to the parent folder. It reports false at the root.
func (c *Controller) Up() bool {
	c.mu.RLock()
	current := c.current.Clone()
	c.mu.RUnlock()
	if current.IsRoot() {
		return false
	}
	c.NavigateTo(current.Parent(), true)
	return true
}

// Back moves one step back in history. It reports false when already at
// the oldest entry.
func (c *Controller) Back() bool {
	return c.step(-1, "back")
}

// Forward moves one step forward in history. It reports false when already
// at the newest entry.
func (c *Controller) Forward() bool {
	return c.step(+1, "forward")
}

func (c *Controller) step(delta int, op string) bool {
	c.mu.Lock()
	next := c.cursor + delta
	if next < 0 || next >= len(c.history) {
		c.mu.Unlock()
		return false
	}
	c.cursor = next
	target := c.history[next].Clone()
	if c.root != nil {
		target = tree.ResolveOrFallback(c.root, target)
	}
	c.current = target
	c.selected = nil
	ev := c.eventLocked(events.EventLocationChanged)
	c.mu.Unlock()

	metrics.RecordNavigation(op)
	c.publish(ev)
	return true
}

// CanGoBack reports whether Back would move.
func (c *Controller) CanGoBack() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor > 0
}

// CanGoForward reports whether Forward would move.
func (c *Controller) CanGoForward() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor < len(c.history)-1
}

// Reload replaces the tree and re-resolves the current path against it
// without touching history, except to seed it when empty. A nil root is
// ignored so a failed load leaves the previous tree in place.
func (c *Controller) Reload(root *models.Node) {
	if root == nil {
		return
	}

	c.mu.Lock()
	c.root = root
	c.current = tree.ResolveOrFallback(root, c.current)
	if len(c.history) == 0 {
		c.history = []models.Path{c.current.Clone()}
		c.cursor = 0
	}
	c.selected = nil
	ev := c.eventLocked(events.EventTreeReplaced)
	ev.Items = tree.CountNodes(root)
	c.mu.Unlock()

	metrics.RecordNavigation("reload")
	c.publish(ev)
}

// Select marks the visible file called name in the current folder as
// selected. Any other name clears the selection. It reports whether a file
// is now selected.
func (c *Controller) Select(name string) bool {
	c.mu.Lock()
	file := tree.FindFile(tree.Resolve(c.root, c.current), name)
	c.selected = file
	ev := c.eventLocked(events.EventSelectionChanged)
	if file != nil {
		ev.Name = file.Name
	}
	c.mu.Unlock()

	c.publish(ev)
	return file != nil
}

// Selection returns the selected file and its absolute path, or nil.
func (c *Controller) Selection() (*models.Node, models.Path) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return nil, nil
	}
	return c.selected, c.current.Child(c.selected.Name)
}

// Open follows a search hit or autocomplete pick. Autocomplete folders are
// entered; everything else opens the containing folder and selects the
// entry when it is a file.
func (c *Controller) Open(rec models.MatchRecord) {
	switch {
	case rec.IsPathRecord() && rec.Kind == models.KindFolder:
		c.NavigateTo(rec.PathSegments, true)
	case rec.IsPathRecord():
		c.NavigateTo(rec.PathSegments.Parent(), true)
		c.Select(rec.Name)
	default:
		c.NavigateTo(rec.PathSegments, true)
		if rec.Kind == models.KindFile {
			c.Select(rec.Name)
		}
	}
}

// Current returns a copy of the current path.
func (c *Controller) Current() models.Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Root returns the loaded tree, or nil.
func (c *Controller) Root() *models.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root
}

// Children lists the visible entries of the current folder.
func (c *Controller) Children() []*models.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tree.VisibleChildren(tree.Resolve(c.root, c.current))
}

// Search runs a tree-wide search over the loaded tree.
func (c *Controller) Search(term string) []models.MatchRecord {
	results := tree.Search(c.Root(), term)
	metrics.RecordSearch(len(results))
	return results
}

// Paths returns autocomplete candidates for typed text.
func (c *Controller) Paths(text string) []models.MatchRecord {
	return tree.FilterPaths(tree.EnumerateAll(c.Root()), text, tree.DefaultPathLimit)
}

// Snapshot returns a consistent copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ID:           c.id,
		Path:         c.current.Clone(),
		CanGoBack:    c.cursor > 0,
		CanGoForward: c.cursor < len(c.history)-1,
		HistoryLen:   len(c.history),
		Cursor:       c.cursor,
		Loaded:       c.root != nil,
		Items:        tree.CountNodes(c.root),
		Selected:     c.selected,
	}
}

func (c *Controller) eventLocked(typ string) events.Event {
	return events.Event{Type: typ, Session: c.id, Path: c.current.String()}
}

func (c *Controller) publish(ev events.Event) {
	if c.pub != nil {
		c.pub.Publish(ev)
	}
}
