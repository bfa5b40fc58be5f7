// Package models contains the data types shared by the tree engine and its consumers.
package models

import (
	"strings"
	"time"
)

// Kind tags a node as a folder or a file.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Node represents a folder or file entry in the virtual tree.
// The root is an unnamed folder.
type Node struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// File-only attributes. HasSize distinguishes an absent size from 0.
	Size     int64  `json:"size,omitempty"`
	HasSize  bool   `json:"has_size,omitempty"`
	Location string `json:"location,omitempty"`

	// Children in document order (folders only).
	Children []*Node `json:"children,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n != nil && n.Kind == KindFolder
}

// IsFile reports whether the node is a file.
func (n *Node) IsFile() bool {
	return n != nil && n.Kind == KindFile
}

// Path is the sequence of folder names from the root. The empty path is the root.
type Path []string

// Equal reports whether both paths name the same location.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with p. Never nil.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Parent returns the path without its last segment. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1].Clone()
}

// IsRoot reports whether p denotes the root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// String renders the path as "/a/b"; the root is "/".
func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// MatchRecord describes a search hit or an autocomplete candidate.
//
// Search results carry the parent folder in PathSegments and a relative
// DisplayPath. Enumeration results carry the entry's own path in
// PathSegments and its absolute FullPath.
type MatchRecord struct {
	Kind         Kind   `json:"kind"`
	Name         string `json:"name"`
	PathSegments Path   `json:"path_segments"`
	FullPath     string `json:"full_path,omitempty"`
	DisplayPath  string `json:"display_path,omitempty"`

	Node *Node `json:"-"`
}

// IsPathRecord reports whether the record came from path enumeration.
func (m MatchRecord) IsPathRecord() bool {
	return m.FullPath != ""
}
