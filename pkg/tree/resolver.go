package tree

import (
	"strings"

	"github.com/fruitsalade/dfm/pkg/models"
)

// Separator delimits segments of a textual path.
const Separator = "/"

// ResolveOrFallback returns path when it resolves under root, otherwise the
// nearest resolvable ancestor. The root always resolves.
func ResolveOrFallback(root *models.Node, path models.Path) models.Path {
	p := path.Clone()
	if root == nil {
		return models.Path{}
	}
	for len(p) > 0 && Resolve(root, p) == nil {
		p = p[:len(p)-1]
	}
	return p
}

// ParseTypedPath splits text on the separator, dropping empty segments.
func ParseTypedPath(text string) models.Path {
	p := models.Path{}
	for _, seg := range strings.Split(text, Separator) {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// EnumerateAll lists every visible folder and file with its absolute path.
// Within a folder, each subfolder is followed by its own subtree, then the
// folder's files. Files are shadowed against every folder name in the tree.
func EnumerateAll(root *models.Node) []models.MatchRecord {
	out := []models.MatchRecord{}
	if root == nil {
		return out
	}
	enumerate(root, models.Path{}, FolderNames(root), &out)
	return out
}

func enumerate(folder *models.Node, parent models.Path, names NameSet, out *[]models.MatchRecord) {
	for _, child := range folder.Children {
		if !child.IsFolder() {
			continue
		}
		p := parent.Child(child.Name)
		*out = append(*out, models.MatchRecord{
			Kind:         models.KindFolder,
			Name:         child.Name,
			PathSegments: p,
			FullPath:     p.String(),
			Node:         child,
		})
		enumerate(child, p, names, out)
	}
	for _, child := range folder.Children {
		if !child.IsFile() || Shadowed(child, names) {
			continue
		}
		p := parent.Child(child.Name)
		*out = append(*out, models.MatchRecord{
			Kind:         models.KindFile,
			Name:         child.Name,
			PathSegments: p,
			FullPath:     p.String(),
			Node:         child,
		})
	}
}

// DefaultPathLimit caps autocomplete candidates.
const DefaultPathLimit = 50

// FilterPaths keeps the records whose FullPath contains text, ignoring case,
// up to limit entries (limit <= 0 means unlimited). Empty text or a bare
// separator yields nothing.
func FilterPaths(records []models.MatchRecord, text string, limit int) []models.MatchRecord {
	text = strings.TrimSpace(text)
	out := []models.MatchRecord{}
	if text == "" || text == Separator {
		return out
	}
	needle := strings.ToLower(text)
	for _, rec := range records {
		if !strings.Contains(strings.ToLower(rec.FullPath), needle) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
