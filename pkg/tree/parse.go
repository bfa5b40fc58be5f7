package tree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fruitsalade/dfm/pkg/models"
)

// Element and attribute names of the explorer document.
const (
	elemRoot   = "root"
	elemFolder = "folder"
	elemFile   = "file"

	attrName      = "name"
	attrSize      = "size"
	attrUpdatedAt = "updated_at"
	attrPath      = "path"
)

var (
	// ErrNoRootElement is reported when the document has no <root> element.
	ErrNoRootElement = errors.New("no <root> element")
	// ErrMalformedSource is reported when the document is not well-formed XML.
	ErrMalformedSource = errors.New("malformed source")
)

// ParseError is returned by Parse. errors.Is matches it against its Kind.
type ParseError struct {
	Kind error
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse document: %v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse document: %v", e.Kind)
}

func (e *ParseError) Is(target error) bool {
	return target == e.Kind
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*models.Node, error) {
	return Parse(bytes.NewReader(data))
}

// Parse decodes an explorer document into a tree rooted at its first
// <root> element. Malformed size and timestamp attributes degrade to
// absent values; only undecodable markup or a missing root fail.
func Parse(r io.Reader) (*models.Node, error) {
	dec := xml.NewDecoder(r)

	var (
		root      *models.Node
		done      bool
		sawElem   bool
		depth     int
		stack     []*models.Node // nil entries are ignored subtrees
		rootDepth = -1
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Kind: ErrMalformedSource, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawElem = true
			depth++
			if done {
				continue
			}
			if root == nil {
				if t.Name.Local == elemRoot {
					root = &models.Node{Kind: models.KindFolder}
					rootDepth = depth
					stack = append(stack, root)
				}
				continue
			}
			stack = append(stack, childFor(stack[len(stack)-1], t))

		case xml.EndElement:
			if root != nil && !done {
				stack = stack[:len(stack)-1]
				if depth == rootDepth {
					done = true
				}
			}
			depth--

		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, &ParseError{Kind: ErrMalformedSource, Err: errors.New("text outside of any element")}
			}
		}
	}

	if !sawElem {
		return nil, &ParseError{Kind: ErrMalformedSource, Err: errors.New("no elements")}
	}
	if root == nil {
		return nil, &ParseError{Kind: ErrNoRootElement}
	}
	return root, nil
}

// childFor attaches the element to parent when it declares a folder or file
// directly inside a folder, and returns the node to push (nil when the
// element's subtree is ignored).
func childFor(parent *models.Node, el xml.StartElement) *models.Node {
	if !parent.IsFolder() {
		return nil
	}

	var kind models.Kind
	switch el.Name.Local {
	case elemFolder:
		kind = models.KindFolder
	case elemFile:
		kind = models.KindFile
	default:
		return nil
	}

	node := &models.Node{Kind: kind}
	var rawSize string
	for _, a := range el.Attr {
		switch a.Name.Local {
		case attrName:
			node.Name = a.Value
		case attrUpdatedAt:
			node.UpdatedAt = parseTimestamp(a.Value)
		case attrSize:
			rawSize = a.Value
		case attrPath:
			node.Location = a.Value
		}
	}
	if node.Name == "" {
		return nil
	}
	if kind == models.KindFile {
		node.Size, node.HasSize = parseSize(rawSize)
	} else {
		node.Location = ""
	}

	parent.Children = append(parent.Children, node)
	return node
}

// parseSize reads the leading decimal integer of s. Anything without one,
// or a negative value, is treated as absent.
func parseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// parseTimestamp returns the zero time for values it cannot read.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}
