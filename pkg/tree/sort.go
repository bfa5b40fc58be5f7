package tree

import (
	"sort"

	"github.com/fruitsalade/dfm/pkg/models"
)

// SortByUpdated orders nodes in place: folders before files, then most
// recently updated first. Nodes without a timestamp go last and ties keep
// their original order.
func SortByUpdated(nodes []*models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		if a.UpdatedAt.IsZero() || b.UpdatedAt.IsZero() {
			return !a.UpdatedAt.IsZero() && b.UpdatedAt.IsZero()
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
}
