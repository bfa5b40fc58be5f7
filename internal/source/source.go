// Package source fetches explorer documents and turns them into trees.
//
// A Source knows how to retrieve raw document bytes from one location. The
// Loader wraps sources with caching, coalescing and supersession so that
// concurrent reloads never let an older tree replace a newer one.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fruitsalade/dfm/pkg/retry"
)

// Source types reported by Type.
const (
	TypeHTTP = "http"
	TypeS3   = "s3"
	TypeFile = "file"
)

// maxDocumentSize bounds how much of a document is read into memory.
const maxDocumentSize = 64 << 20

// ErrNotFound is returned when the location does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidLocation is returned by New for locations no source can open.
var ErrInvalidLocation = errors.New("invalid document location")

// Source retrieves the raw bytes of an explorer document.
type Source interface {
	// Fetch returns the full document. Transient failures are marked with
	// retry.Retryable.
	Fetch(ctx context.Context) ([]byte, error)

	// Location returns the location the source was opened with.
	Location() string

	// Type returns the source type identifier ("http", "s3", "file").
	Type() string
}

// S3Config holds S3 connection settings for s3:// locations.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Options configures sources created by New.
type Options struct {
	Timeout   time.Duration
	Retry     retry.Config
	AuthToken string // bearer token sent to HTTP sources
	S3        S3Config
}

// New opens a source for location, choosing the implementation by scheme:
// http(s):// fetches over HTTP, s3://bucket/key reads an object, and
// anything else (optionally file://) is a local path.
func New(ctx context.Context, location string, opts Options) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // "C:\..." parses with scheme "c"
		return NewFile(location), nil
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTP(location, opts), nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: s3 location %q must be s3://bucket/key", ErrInvalidLocation, location)
		}
		return NewS3(ctx, u.Host, key, opts.S3)
	case "file":
		return NewFile(u.Path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, u.Scheme)
	}
}

// ResolveLocation resolves a file's location reference against base, the
// way a browser resolves a relative link. Absolute references are returned
// unchanged; anything that cannot be resolved is returned raw.
func ResolveLocation(location, base string) string {
	if location == "" || base == "" {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return location
	}
	return b.ResolveReference(ref).String()
}
