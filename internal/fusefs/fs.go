//go:build linux || darwin

// Package fusefs exposes an explorer tree as a read-only FUSE filesystem.
//
// Folders become directories and visible files become regular files that
// report their declared size and modification time. File content is not
// available; opening a file fails with ENOTSUP.
package fusefs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	gofuse "github.com/hanwen/go-fuse/v2/fuse"

	"github.com/fruitsalade/dfm/internal/logging"
	"github.com/fruitsalade/dfm/internal/source"
	"github.com/fruitsalade/dfm/pkg/models"
	"github.com/fruitsalade/dfm/pkg/tree"
)

// Extended attributes served for every entry.
const (
	XattrLocation = "user.dfm.location"
	XattrURL      = "user.dfm.url"
	XattrPath     = "user.dfm.path"
	XattrSize     = "user.dfm.size"
)

var xattrNames = []string{XattrLocation, XattrURL, XattrPath, XattrSize}

// Loader is the document loading the filesystem depends on.
type Loader interface {
	Load(ctx context.Context, location string, force bool) (*source.Document, error)
}

// Config holds FUSE filesystem configuration.
type Config struct {
	Location        string // document location
	BaseURL         string // base for resolving file locations; defaults to Location
	RefreshInterval time.Duration
}

// Stats holds filesystem statistics.
type Stats struct {
	Refreshes       atomic.Int64
	RefreshFailures atomic.Int64
	Lookups         atomic.Int64
}

// FS serves the most recently loaded tree. Reloads swap the tree for
// subsequent lookups; inodes handed out earlier re-resolve their path.
type FS struct {
	loader Loader
	cfg    Config
	uid    uint32
	gid    uint32

	root atomic.Pointer[models.Node]

	mu            sync.Mutex
	refreshTicker *time.Ticker
	refreshStop   chan struct{}

	stats Stats
}

// New creates a filesystem for cfg.Location. Call Refresh before Mount.
func New(loader Loader, cfg Config) *FS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = cfg.Location
	}
	return &FS{
		loader:      loader,
		cfg:         cfg,
		uid:         uint32(os.Getuid()),
		gid:         uint32(os.Getgid()),
		refreshStop: make(chan struct{}),
	}
}

// Refresh loads the document and swaps it in. On failure the previous tree
// keeps being served.
func (f *FS) Refresh(ctx context.Context, force bool) error {
	doc, err := f.loader.Load(ctx, f.cfg.Location, force)
	if err != nil {
		f.stats.RefreshFailures.Add(1)
		logging.Warn("tree refresh failed",
			logging.Location(f.cfg.Location),
			logging.Err(err),
		)
		return fmt.Errorf("refresh %s: %w", f.cfg.Location, err)
	}

	old := f.root.Swap(doc.Root)
	f.stats.Refreshes.Add(1)
	if oldCount, newCount := tree.CountNodes(old), doc.Items; oldCount != newCount {
		logging.Info("tree refreshed",
			logging.Int("before", oldCount),
			logging.Int("after", newCount),
		)
	} else {
		logging.Debug("tree refreshed", logging.Int("items", newCount))
	}
	return nil
}

// SetRoot replaces the served tree directly.
func (f *FS) SetRoot(root *models.Node) {
	f.root.Store(root)
}

// Root returns the served tree.
func (f *FS) Root() *models.Node {
	return f.root.Load()
}

// StartRefreshLoop reloads the document every RefreshInterval.
func (f *FS) StartRefreshLoop(ctx context.Context) {
	if f.cfg.RefreshInterval <= 0 {
		return
	}

	f.mu.Lock()
	f.refreshTicker = time.NewTicker(f.cfg.RefreshInterval)
	ticker := f.refreshTicker
	f.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				f.Refresh(ctx, true)
			case <-f.refreshStop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	logging.Info("tree refresh enabled", logging.Duration("interval", f.cfg.RefreshInterval))
}

// StopRefreshLoop stops the refresh loop.
func (f *FS) StopRefreshLoop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshTicker != nil {
		f.refreshTicker.Stop()
		close(f.refreshStop)
		f.refreshTicker = nil
	}
}

// GetStats returns filesystem statistics.
func (f *FS) GetStats() *Stats {
	return &f.stats
}

// Mount mounts the filesystem at mountPoint.
func (f *FS) Mount(mountPoint string) (*gofuse.Server, error) {
	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		return nil, fmt.Errorf("create mount point: %w", err)
	}

	opts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			AllowOther: false,
			Debug:      false,
			FsName:     "dfm",
			Name:       "dfm",
		},
		UID: f.uid,
		GID: f.gid,
	}

	server, err := fs.Mount(mountPoint, f.newNode(models.Path{}), opts)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	return server, nil
}

func (f *FS) newNode(path models.Path) *Node {
	return &Node{fsys: f, path: path}
}

// Node is a directory or file, identified by its path from the root.
type Node struct {
	fs.Inode

	fsys *FS
	path models.Path // for files the last segment is the file name
}

var _ fs.InodeEmbedder = (*Node)(nil)
var _ fs.NodeGetattrer = (*Node)(nil)
var _ fs.NodeLookuper = (*Node)(nil)
var _ fs.NodeReaddirer = (*Node)(nil)
var _ fs.NodeOpener = (*Node)(nil)
var _ fs.NodeGetxattrer = (*Node)(nil)
var _ fs.NodeListxattrer = (*Node)(nil)

// resolve finds the node for n.path in the current tree, or nil when a
// reload removed it.
func (n *Node) resolve() *models.Node {
	root := n.fsys.Root()
	if root == nil {
		return nil
	}
	if n.path.IsRoot() {
		return root
	}
	parent := tree.Resolve(root, n.path.Parent())
	if parent == nil {
		return nil
	}
	return lookupChild(parent, n.path[len(n.path)-1])
}

// lookupChild finds name among the visible children of folder. A folder
// wins over a same-named sized file.
func lookupChild(folder *models.Node, name string) *models.Node {
	var file *models.Node
	for _, child := range tree.VisibleChildren(folder) {
		if child.Name != name {
			continue
		}
		if child.IsFolder() {
			return child
		}
		if file == nil {
			file = child
		}
	}
	return file
}

// dirEntries lists folder as directory entries, one per name.
func dirEntries(folder *models.Node) []gofuse.DirEntry {
	children := tree.VisibleChildren(folder)
	seen := make(map[string]bool, len(children))
	entries := make([]gofuse.DirEntry, 0, len(children))
	for _, child := range children {
		if seen[child.Name] {
			continue
		}
		chosen := lookupChild(folder, child.Name)
		seen[child.Name] = true
		entries = append(entries, gofuse.DirEntry{
			Name: child.Name,
			Mode: fileType(chosen),
		})
	}
	return entries
}

func fileType(n *models.Node) uint32 {
	if n.IsFolder() {
		return syscall.S_IFDIR
	}
	return syscall.S_IFREG
}

func (f *FS) fillAttr(n *models.Node, out *gofuse.Attr) {
	if n.IsFolder() {
		out.Mode = 0555 | syscall.S_IFDIR
	} else {
		out.Mode = 0444 | syscall.S_IFREG
		out.Size = uint64(max(n.Size, 0))
	}
	if !n.UpdatedAt.IsZero() {
		out.Mtime = uint64(n.UpdatedAt.Unix())
	}
	out.Atime = out.Mtime
	out.Ctime = out.Mtime
	out.Uid = f.uid
	out.Gid = f.gid
}

// Getattr returns attributes from the tree without touching content.
func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *gofuse.AttrOut) syscall.Errno {
	node := n.resolve()
	if node == nil {
		return syscall.ENOENT
	}
	n.fsys.fillAttr(node, &out.Attr)
	return 0
}

// Lookup finds a visible child by name.
func (n *Node) Lookup(ctx context.Context, name string, out *gofuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.fsys.stats.Lookups.Add(1)

	folder := n.resolve()
	if !folder.IsFolder() {
		return nil, syscall.ENOENT
	}
	child := lookupChild(folder, name)
	if child == nil {
		return nil, syscall.ENOENT
	}

	n.fsys.fillAttr(child, &out.Attr)
	stableAttr := fs.StableAttr{Mode: fileType(child)}
	return n.NewInode(ctx, n.fsys.newNode(n.path.Child(name)), stableAttr), 0
}

// Readdir lists the visible children of a directory.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	folder := n.resolve()
	if folder == nil {
		return nil, syscall.ENOENT
	}
	if !folder.IsFolder() {
		return nil, syscall.ENOTDIR
	}
	return fs.NewListDirStream(dirEntries(folder)), 0
}

// Open always fails for files: the tree carries metadata only.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	node := n.resolve()
	switch {
	case node == nil:
		return nil, 0, syscall.ENOENT
	case node.IsFolder():
		return nil, 0, syscall.EISDIR
	case flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0:
		return nil, 0, syscall.EROFS
	default:
		return nil, 0, syscall.ENOTSUP
	}
}

// xattr returns the value of attr for node, or false when it has none.
func (n *Node) xattr(node *models.Node, attr string) (string, bool) {
	switch attr {
	case XattrPath:
		return n.path.String(), true
	case XattrLocation:
		return node.Location, node.IsFile() && node.Location != ""
	case XattrURL:
		if !node.IsFile() || node.Location == "" {
			return "", false
		}
		return source.ResolveLocation(node.Location, n.fsys.cfg.BaseURL), true
	case XattrSize:
		return strconv.FormatInt(node.Size, 10), node.IsFile() && node.HasSize
	}
	return "", false
}

// Getxattr returns extended attribute value.
func (n *Node) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	node := n.resolve()
	if node == nil {
		return 0, syscall.ENOENT
	}
	value, ok := n.xattr(node, attr)
	if !ok {
		return 0, syscall.ENODATA
	}

	if len(dest) == 0 {
		return uint32(len(value)), 0
	}
	if len(dest) < len(value) {
		return 0, syscall.ERANGE
	}
	copy(dest, value)
	return uint32(len(value)), 0
}

// Listxattr lists the extended attributes present on the entry.
func (n *Node) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	node := n.resolve()
	if node == nil {
		return 0, syscall.ENOENT
	}

	var attrs []string
	for _, attr := range xattrNames {
		if _, ok := n.xattr(node, attr); ok {
			attrs = append(attrs, attr)
		}
	}

	var total int
	for _, attr := range attrs {
		total += len(attr) + 1
	}
	if len(dest) == 0 {
		return uint32(total), 0
	}
	if len(dest) < total {
		return 0, syscall.ERANGE
	}

	offset := 0
	for _, attr := range attrs {
		copy(dest[offset:], attr)
		offset += len(attr)
		dest[offset] = 0
		offset++
	}
	return uint32(total), 0
}
