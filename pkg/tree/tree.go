// Package tree parses explorer documents and answers listing, path and
// search queries over the resulting immutable node tree.
package tree

import (
	"github.com/fruitsalade/dfm/pkg/models"
)

// Resolve walks path from root matching folder names exactly. It returns
// nil at the first segment without a matching folder child.
func Resolve(root *models.Node, path models.Path) *models.Node {
	if root == nil {
		return nil
	}
	n := root
	for _, name := range path {
		n = findChild(n, name, models.KindFolder)
		if n == nil {
			return nil
		}
	}
	return n
}

// FindFile returns the visible file called name directly inside folder.
func FindFile(folder *models.Node, name string) *models.Node {
	for _, child := range VisibleChildren(folder) {
		if child.IsFile() && child.Name == name {
			return child
		}
	}
	return nil
}

func findChild(parent *models.Node, name string, kind models.Kind) *models.Node {
	for _, child := range parent.Children {
		if child.Kind == kind && child.Name == name {
			return child
		}
	}
	return nil
}

// CountNodes counts all nodes in a tree, the root included.
func CountNodes(root *models.Node) int {
	if root == nil {
		return 0
	}
	count := 1
	for _, child := range root.Children {
		count += CountNodes(child)
	}
	return count
}
