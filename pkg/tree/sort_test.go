package tree

import (
	"strings"
	"testing"
	"time"

	"github.com/fruitsalade/dfm/pkg/models"
)

func TestSortByUpdated(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	at := func(n *models.Node, ts time.Time) *models.Node {
		n.UpdatedAt = ts
		return n
	}

	nodes := []*models.Node{
		at(file("old"), day(1)),
		file("undated-a"),
		at(folder("f-old"), day(2)),
		at(file("new"), day(9)),
		folder("f-undated"),
		file("undated-b"),
		at(folder("f-new"), day(5)),
		at(file("same-1"), day(3)),
		at(file("same-2"), day(3)),
	}
	SortByUpdated(nodes)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	want := "f-new,f-old,f-undated,new,same-1,same-2,old,undated-a,undated-b"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("order = %s\nwant    %s", got, want)
	}
}
