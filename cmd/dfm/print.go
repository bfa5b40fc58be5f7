package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/fruitsalade/dfm/internal/config"
	"github.com/fruitsalade/dfm/pkg/models"
)

var (
	label  = color.New(color.FgGreen).SprintFunc()
	value  = color.New(color.FgHiWhite).SprintFunc()
	dim    = color.New(color.FgHiBlack).SprintFunc()
	folder = color.New(color.FgHiBlue, color.Bold).SprintFunc()
)

func errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "❌ "+format+"\n", args...)
}

func formatSize(size int64) string {
	const (
		KB = 1 << 10
		MB = 1 << 20
		GB = 1 << 30
		TB = 1 << 40
	)

	switch {
	case size >= TB:
		return fmt.Sprintf("%.2f TB", float64(size)/TB)
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// typeName describes an entry for the Type column.
func typeName(n *models.Node) string {
	if n.IsFolder() {
		return "Folder"
	}
	ext := strings.TrimPrefix(path.Ext(n.Name), ".")
	if ext == "" {
		return "File"
	}
	return strings.ToUpper(ext) + " File"
}

func entryName(n *models.Node) string {
	if n.IsFolder() {
		return folder(n.Name + "/")
	}
	return value(n.Name)
}

// listing writes entries as a table whose columns follow opts.
type listing struct {
	opts config.DisplayOptions
	tw   *tabwriter.Writer
}

func newListing(w io.Writer, opts config.DisplayOptions) *listing {
	return &listing{opts: opts, tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (l *listing) header() {
	if !l.opts.Labels {
		return
	}
	cols := []string{l.opts.LabelText["name"]}
	if l.opts.Modified {
		cols = append(cols, l.opts.LabelText["modified"])
	}
	if l.opts.Type {
		cols = append(cols, l.opts.LabelText["type"])
	}
	if l.opts.Size {
		cols = append(cols, l.opts.LabelText["size"])
	}
	for i, c := range cols {
		cols[i] = label(c)
	}
	fmt.Fprintln(l.tw, strings.Join(cols, "\t"))
}

func (l *listing) row(n *models.Node) {
	cols := []string{entryName(n)}
	if l.opts.Modified {
		modified := ""
		if !n.UpdatedAt.IsZero() {
			modified = n.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		cols = append(cols, modified)
	}
	if l.opts.Type {
		cols = append(cols, dim(typeName(n)))
	}
	if l.opts.Size {
		size := ""
		if n.IsFile() && n.HasSize {
			size = formatSize(n.Size)
		}
		cols = append(cols, size)
	}
	fmt.Fprintln(l.tw, strings.Join(cols, "\t"))
}

func (l *listing) flush() error {
	return l.tw.Flush()
}
