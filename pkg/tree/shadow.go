package tree

import "github.com/fruitsalade/dfm/pkg/models"

// NameSet is a set of folder names used to decide shadowing.
type NameSet map[string]struct{}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// SiblingFolderNames collects the names of the folder children of folder.
func SiblingFolderNames(folder *models.Node) NameSet {
	names := make(NameSet)
	if folder == nil {
		return names
	}
	for _, child := range folder.Children {
		if child.IsFolder() {
			names[child.Name] = struct{}{}
		}
	}
	return names
}

// FolderNames collects the names of every folder anywhere below root.
func FolderNames(root *models.Node) NameSet {
	names := make(NameSet)
	collectFolderNames(root, names)
	return names
}

func collectFolderNames(n *models.Node, names NameSet) {
	if n == nil {
		return
	}
	for _, child := range n.Children {
		if child.IsFolder() {
			names[child.Name] = struct{}{}
			collectFolderNames(child, names)
		}
	}
}

// Shadowed reports whether a file is a placeholder superseded by a folder of
// the same name: the name is in names and the file has no size or size 0.
func Shadowed(file *models.Node, names NameSet) bool {
	if !file.IsFile() || !names.Has(file.Name) {
		return false
	}
	return !file.HasSize || file.Size == 0
}

// VisibleChildren lists folder's children in document order, hiding files
// shadowed by a sibling folder.
func VisibleChildren(folder *models.Node) []*models.Node {
	return VisibleChildrenIn(folder, SiblingFolderNames(folder))
}

// VisibleChildrenIn lists folder's children, hiding files shadowed by names.
func VisibleChildrenIn(folder *models.Node, names NameSet) []*models.Node {
	if folder == nil {
		return nil
	}
	out := make([]*models.Node, 0, len(folder.Children))
	for _, child := range folder.Children {
		if Shadowed(child, names) {
			continue
		}
		out = append(out, child)
	}
	return out
}
