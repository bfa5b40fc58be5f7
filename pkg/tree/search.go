package tree

import (
	"strings"

	"github.com/fruitsalade/dfm/pkg/models"
)

// Search matches term as a case-insensitive substring of every visible
// folder and file name in the tree. Results follow traversal order: each
// folder before its subtree, subfolders before the files of a directory.
// A blank term yields no results.
func Search(root *models.Node, term string) []models.MatchRecord {
	out := []models.MatchRecord{}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || root == nil {
		return out
	}
	search(root, models.Path{}, term, FolderNames(root), &out)
	return out
}

func search(folder *models.Node, path models.Path, term string, names NameSet, out *[]models.MatchRecord) {
	for _, child := range folder.Children {
		if !child.IsFolder() {
			continue
		}
		if strings.Contains(strings.ToLower(child.Name), term) {
			*out = append(*out, matchAt(child, path))
		}
		search(child, path.Child(child.Name), term, names, out)
	}
	for _, child := range folder.Children {
		if !child.IsFile() || Shadowed(child, names) {
			continue
		}
		if strings.Contains(strings.ToLower(child.Name), term) {
			*out = append(*out, matchAt(child, path))
		}
	}
}

func matchAt(n *models.Node, parent models.Path) models.MatchRecord {
	return models.MatchRecord{
		Kind:         n.Kind,
		Name:         n.Name,
		PathSegments: parent.Clone(),
		DisplayPath:  DisplayPath(parent),
		Node:         n,
	}
}

// DisplayPath renders a parent path relative to the root: ".." for the root
// itself, "../a/b" below it.
func DisplayPath(parent models.Path) string {
	if len(parent) == 0 {
		return ".."
	}
	return ".." + Separator + strings.Join(parent, Separator)
}
