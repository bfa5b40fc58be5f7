package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/metrics"
	"github.com/fruitsalade/dfm/pkg/models"
	"github.com/fruitsalade/dfm/pkg/tree"
)

// ErrSuperseded is returned by a load whose result arrived after a newer
// load of the same location had already been applied.
var ErrSuperseded = errors.New("load superseded by a newer one")

// Document is a parsed explorer document.
type Document struct {
	Location string
	Type     string
	Root     *models.Node
	Seq      uint64 // increases with every load started by the Loader
	LoadedAt time.Time
	Items    int
}

// Opener creates the Source for a location.
type Opener func(ctx context.Context, location string) (Source, error)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	CacheTTL     time.Duration // how long a non-forced load reuses a parsed tree; 0 disables expiry
	FetchTimeout time.Duration // per-load fetch deadline; 0 means none
}

// Loader fetches and parses documents. Non-forced loads of a location reuse
// a cached tree and share one in-flight fetch. Forced loads always fetch.
// Of two overlapping loads for the same location, the one started last wins.
type Loader struct {
	open    Opener
	opts    LoaderOptions
	trees   *cache.Cache
	flights singleflight.Group

	mu      sync.Mutex
	sources map[string]Source
	seq     uint64
	applied map[string]uint64
	latest  *Document
}

// NewLoader creates a loader that opens sources with open.
func NewLoader(open Opener, opts LoaderOptions) *Loader {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Loader{
		open:    open,
		opts:    opts,
		trees:   cache.New(ttl, 10*time.Minute),
		sources: make(map[string]Source),
		applied: make(map[string]uint64),
	}
}

// NewDefaultLoader creates a loader whose sources are opened with New.
func NewDefaultLoader(srcOpts Options, opts LoaderOptions) *Loader {
	return NewLoader(func(ctx context.Context, location string) (Source, error) {
		return New(ctx, location, srcOpts)
	}, opts)
}

// Load returns the document at location. Unless force is set, a cached
// tree is reused and concurrent callers share one fetch, which keeps
// running when the caller that started it goes away.
func (l *Loader) Load(ctx context.Context, location string, force bool) (*Document, error) {
	if !force {
		if doc, ok := l.Cached(location); ok {
			metrics.RecordCacheLookup(true)
			return doc, nil
		}
		metrics.RecordCacheLookup(false)

		// The shared fetch outlives any single caller; each caller only
		// stops waiting when its own context ends.
		flight := context.WithoutCancel(ctx)
		ch := l.flights.DoChan(location, func() (interface{}, error) {
			return l.fetch(flight, location)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.(*Document), nil
		}
	}
	return l.fetch(ctx, location)
}

// Cached returns the cached document for location, if any.
func (l *Loader) Cached(location string) (*Document, bool) {
	v, ok := l.trees.Get(location)
	if !ok {
		return nil, false
	}
	return v.(*Document), true
}

// Latest returns the most recently applied document of any location.
func (l *Loader) Latest() *Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Invalidate drops the cached tree for location.
func (l *Loader) Invalidate(location string) {
	l.trees.Delete(location)
}

// Source returns the source opened for location, opening it if needed.
func (l *Loader) Source(ctx context.Context, location string) (Source, error) {
	l.mu.Lock()
	src, ok := l.sources[location]
	l.mu.Unlock()
	if ok {
		return src, nil
	}

	src, err := l.open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", location, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.sources[location]; ok {
		return existing, nil
	}
	l.sources[location] = src
	return src, nil
}

func (l *Loader) fetch(ctx context.Context, location string) (*Document, error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	src, err := l.Source(ctx, location)
	if err != nil {
		return nil, err
	}

	if l.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	data, err := src.Fetch(ctx)
	if err != nil {
		metrics.RecordDocumentLoad(src.Type(), time.Since(start), false)
		logging.Warn("document fetch failed",
			logging.Location(location),
			logging.Err(err),
		)
		return nil, err
	}

	root, err := tree.ParseBytes(data)
	if err != nil {
		metrics.RecordDocumentLoad(src.Type(), time.Since(start), false)
		logging.Warn("document parse failed",
			logging.Location(location),
			logging.Err(err),
		)
		return nil, fmt.Errorf("load %s: %w", location, err)
	}

	doc := &Document{
		Location: location,
		Type:     src.Type(),
		Root:     root,
		Seq:      seq,
		LoadedAt: time.Now(),
		Items:    tree.CountNodes(root),
	}

	l.mu.Lock()
	if l.applied[location] > seq {
		l.mu.Unlock()
		logging.Debug("discarding superseded load",
			logging.Location(location),
			logging.Int("seq", int(seq)),
		)
		return nil, ErrSuperseded
	}
	l.applied[location] = seq
	if l.latest == nil || l.latest.Seq < seq {
		l.latest = doc
	}
	l.trees.SetDefault(location, doc)
	l.mu.Unlock()

	metrics.RecordDocumentLoad(src.Type(), time.Since(start), true)
	metrics.SetTreeSize(location, doc.Items)
	logging.Info("document loaded",
		logging.Location(location),
		logging.String("type", doc.Type),
		logging.Int("items", doc.Items),
		logging.Duration("duration", time.Since(start)),
	)
	return doc, nil
}
