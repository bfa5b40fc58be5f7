package navigation

import (
	"sync"
	"testing"

	"github.com/fruitsalade/dfm/internal/events"
	"github.com/fruitsalade/dfm/pkg/models"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func folder(name string, children ...*models.Node) *models.Node {
	return &models.Node{Kind: models.KindFolder, Name: name, Children: children}
}

func file(name string, size int64) *models.Node {
	return &models.Node{Kind: models.KindFile, Name: name, Size: size, HasSize: size >= 0}
}

// /A/B, /C, /docs/api, placeholder file "docs", /readme.txt
func sampleRoot() *models.Node {
	return folder("",
		folder("A", folder("B", file("deep.txt", 3))),
		folder("C"),
		folder("docs", folder("api"), file("a.txt", 10)),
		file("docs", 0),
		file("readme.txt", 12),
	)
}

func loaded(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := New("s1", rec)
	c.Reload(sampleRoot())
	return c, rec
}

func TestNewControllerIsEmpty(t *testing.T) {
	c := New("s1", nil)
	s := c.Snapshot()
	if s.Loaded || !s.Path.IsRoot() || s.Cursor != -1 || s.HistoryLen != 0 {
		t.Errorf("snapshot = %+v", s)
	}
	if c.CanGoBack() || c.CanGoForward() {
		t.Error("empty history should not allow back or forward")
	}
	if c.Back() || c.Forward() {
		t.Error("Back/Forward on empty history should be no-ops")
	}
	if len(c.Children()) != 0 || len(c.Search("a")) != 0 || len(c.Paths("a")) != 0 {
		t.Error("reads without a tree should be empty")
	}
}

func TestReloadSeedsHistory(t *testing.T) {
	c, rec := loaded(t)
	s := c.Snapshot()
	if !s.Loaded || s.HistoryLen != 1 || s.Cursor != 0 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Items != 10 {
		t.Errorf("items = %d, want 10", s.Items)
	}
	if got := rec.types(); len(got) != 1 || got[0] != events.EventTreeReplaced {
		t.Errorf("events = %v", got)
	}
	if rec.events[0].Items != 10 || rec.events[0].Session != "s1" {
		t.Errorf("tree_replaced event = %+v", rec.events[0])
	}
}

func TestHistoryScenario(t *testing.T) {
	c, _ := loaded(t)

	c.NavigateTo(models.Path{"A"}, true)
	c.NavigateTo(models.Path{"A", "B"}, true)
	if !c.Back() {
		t.Fatal("Back should move")
	}
	if got := c.Current(); !got.Equal(models.Path{"A"}) {
		t.Fatalf("after back current = %v", got)
	}
	if !c.CanGoForward() {
		t.Error("forward should be available after back")
	}

	c.NavigateTo(models.Path{"C"}, true)
	if c.CanGoForward() {
		t.Error("new navigation must discard forward history")
	}
	s := c.Snapshot()
	if s.HistoryLen != 3 || s.Cursor != 2 {
		t.Errorf("history len %d cursor %d, want 3 and 2", s.HistoryLen, s.Cursor)
	}

	c.Back()
	c.Back()
	if !c.Current().IsRoot() {
		t.Errorf("current = %v, want root", c.Current())
	}
	if c.Back() {
		t.Error("Back at cursor 0 should be a no-op")
	}
	if !c.Current().IsRoot() || c.Snapshot().Cursor != 0 {
		t.Error("no-op Back changed state")
	}

	c.Forward()
	c.Forward()
	if !c.Current().Equal(models.Path{"C"}) {
		t.Errorf("current = %v, want /C", c.Current())
	}
	if c.Forward() {
		t.Error("Forward at the newest entry should be a no-op")
	}
}

func TestNavigateWithoutRecord(t *testing.T) {
	c, _ := loaded(t)
	c.NavigateTo(models.Path{"A"}, false)
	if !c.Current().Equal(models.Path{"A"}) {
		t.Errorf("current = %v", c.Current())
	}
	if s := c.Snapshot(); s.HistoryLen != 1 {
		t.Errorf("history len = %d, want 1", s.HistoryLen)
	}
}

func TestNavigateFallsBack(t *testing.T) {
	c, rec := loaded(t)
	c.NavigateTo(models.Path{"docs", "missing"}, true)
	if !c.Current().Equal(models.Path{"docs"}) {
		t.Errorf("current = %v, want /docs", c.Current())
	}
	last := rec.events[len(rec.events)-1]
	if last.Type != events.EventLocationChanged || last.Path != "/docs" {
		t.Errorf("event = %+v", last)
	}
}

func TestNavigateBeforeLoadKeepsRawPath(t *testing.T) {
	c := New("s1", nil)
	c.NavigateTo(models.Path{"docs", "missing"}, false)
	if !c.Current().Equal(models.Path{"docs", "missing"}) {
		t.Errorf("current = %v", c.Current())
	}
	c.Reload(sampleRoot())
	if !c.Current().Equal(models.Path{"docs"}) {
		t.Errorf("after reload current = %v, want /docs", c.Current())
	}
	if s := c.Snapshot(); s.HistoryLen != 1 || !c.Current().Equal(models.Path{"docs"}) {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestReloadKeepsHistoryAndFallsBack(t *testing.T) {
	c, _ := loaded(t)
	c.NavigateTo(models.Path{"A", "B"}, true)

	c.Reload(folder("", folder("A")))
	if !c.Current().Equal(models.Path{"A"}) {
		t.Errorf("current = %v, want /A", c.Current())
	}
	if s := c.Snapshot(); s.HistoryLen != 2 || s.Cursor != 1 {
		t.Errorf("reload changed history: %+v", s)
	}

	c.Reload(nil)
	if !c.Snapshot().Loaded {
		t.Error("nil reload should keep the previous tree")
	}
}

func TestUp(t *testing.T) {
	c, _ := loaded(t)
	if c.Up() {
		t.Error("Up at root should report false")
	}
	c.NavigateText("/A/B")
	if !c.Up() || !c.Current().Equal(models.Path{"A"}) {
		t.Errorf("Up from /A/B = %v", c.Current())
	}
	if !c.CanGoBack() {
		t.Error("Up should record history")
	}
}

func TestNavigateText(t *testing.T) {
	c, _ := loaded(t)
	c.NavigateText("//A///B/nothing/")
	if !c.Current().Equal(models.Path{"A", "B"}) {
		t.Errorf("current = %v", c.Current())
	}
}

func TestSelection(t *testing.T) {
	c, rec := loaded(t)

	if !c.Select("readme.txt") {
		t.Fatal("Select(readme.txt) should succeed")
	}
	node, path := c.Selection()
	if node == nil || node.Name != "readme.txt" || path.String() != "/readme.txt" {
		t.Errorf("selection = %v %v", node, path)
	}
	last := rec.events[len(rec.events)-1]
	if last.Type != events.EventSelectionChanged || last.Name != "readme.txt" {
		t.Errorf("event = %+v", last)
	}

	if c.Select("docs") {
		t.Error("shadowed placeholder must not be selectable")
	}
	if n, _ := c.Selection(); n != nil {
		t.Error("failed select should clear the selection")
	}

	c.Select("readme.txt")
	c.NavigateTo(models.Path{"A"}, true)
	if n, _ := c.Selection(); n != nil {
		t.Error("navigation should clear the selection")
	}
	c.Back()
	if n, _ := c.Selection(); n != nil {
		t.Error("back should clear the selection")
	}
}

func TestOpen(t *testing.T) {
	c, _ := loaded(t)

	// autocomplete folder: enter it
	c.Open(models.MatchRecord{Kind: models.KindFolder, Name: "B", PathSegments: models.Path{"A", "B"}, FullPath: "/A/B"})
	if !c.Current().Equal(models.Path{"A", "B"}) {
		t.Errorf("path folder open: current = %v", c.Current())
	}

	// autocomplete file: open parent, select file
	c.Open(models.MatchRecord{Kind: models.KindFile, Name: "a.txt", PathSegments: models.Path{"docs", "a.txt"}, FullPath: "/docs/a.txt"})
	if !c.Current().Equal(models.Path{"docs"}) {
		t.Errorf("path file open: current = %v", c.Current())
	}
	if n, _ := c.Selection(); n == nil || n.Name != "a.txt" {
		t.Errorf("path file open: selection = %v", n)
	}

	// search hits carry the parent path
	hits := c.Search("deep")
	if len(hits) != 1 {
		t.Fatalf("Search(deep) = %v", hits)
	}
	c.Open(hits[0])
	if !c.Current().Equal(models.Path{"A", "B"}) {
		t.Errorf("search open: current = %v", c.Current())
	}
	if _, p := c.Selection(); p.String() != "/A/B/deep.txt" {
		t.Errorf("search open: selection path = %v", p)
	}

	c.Open(models.MatchRecord{Kind: models.KindFolder, Name: "api", PathSegments: models.Path{"docs"}})
	if !c.Current().Equal(models.Path{"docs"}) {
		t.Errorf("search folder open: current = %v", c.Current())
	}
}

func TestChildrenAndPaths(t *testing.T) {
	c, _ := loaded(t)

	var names []string
	for _, n := range c.Children() {
		names = append(names, n.Name)
	}
	want := []string{"A", "C", "docs", "readme.txt"}
	if len(names) != len(want) {
		t.Fatalf("children = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("children = %v, want %v", names, want)
			break
		}
	}

	paths := c.Paths("/a")
	if len(paths) == 0 || paths[0].FullPath != "/A" {
		t.Errorf("Paths(/a) = %v", paths)
	}
	if len(c.Paths("/")) != 0 {
		t.Error("Paths(/) should be empty")
	}
}

func TestConcurrentUse(t *testing.T) {
	c, _ := loaded(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 5 {
				case 0:
					c.NavigateTo(models.Path{"A", "B"}, true)
				case 1:
					c.Back()
				case 2:
					c.Forward()
				case 3:
					c.Children()
				case 4:
					c.Snapshot()
				}
			}
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Cursor < 0 || s.Cursor >= s.HistoryLen {
		t.Errorf("cursor %d out of range for history %d", s.Cursor, s.HistoryLen)
	}
}
