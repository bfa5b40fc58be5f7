package tree

import (
	"reflect"
	"testing"

	"github.com/fruitsalade/dfm/pkg/models"
)

func TestResolveOrFallback(t *testing.T) {
	root := sampleTree()

	tests := []struct {
		in   models.Path
		want models.Path
	}{
		{models.Path{}, models.Path{}},
		{models.Path{"docs"}, models.Path{"docs"}},
		{models.Path{"docs", "missing"}, models.Path{"docs"}},
		{models.Path{"docs", "api", "x", "y"}, models.Path{"docs", "api"}},
		{models.Path{"gone", "api"}, models.Path{}},
		{models.Path{"README.md"}, models.Path{}},
	}

	for _, tt := range tests {
		got := ResolveOrFallback(root, tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("ResolveOrFallback(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if Resolve(root, got) == nil {
			t.Errorf("ResolveOrFallback(%v) = %v does not resolve", tt.in, got)
		}
		if again := ResolveOrFallback(root, got); !again.Equal(got) {
			t.Errorf("ResolveOrFallback not idempotent: %v then %v", got, again)
		}
	}

	if got := ResolveOrFallback(nil, models.Path{"a"}); !got.IsRoot() {
		t.Errorf("ResolveOrFallback(nil) = %v, want root", got)
	}
}

func TestResolveOrFallbackDoesNotMutateInput(t *testing.T) {
	in := models.Path{"docs", "missing"}
	_ = ResolveOrFallback(sampleTree(), in)
	if len(in) != 2 || in[1] != "missing" {
		t.Errorf("input mutated: %v", in)
	}
}

func TestParseTypedPath(t *testing.T) {
	tests := []struct {
		in   string
		want models.Path
	}{
		{"", models.Path{}},
		{"/", models.Path{}},
		{"/docs", models.Path{"docs"}},
		{"docs/api/", models.Path{"docs", "api"}},
		{"//docs///api", models.Path{"docs", "api"}},
		{"/Docs/API", models.Path{"Docs", "API"}},
	}
	for _, tt := range tests {
		if got := ParseTypedPath(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseTypedPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnumerateAll(t *testing.T) {
	recs := EnumerateAll(sampleTree())

	var got []string
	for _, r := range recs {
		got = append(got, string(r.Kind)+" "+r.FullPath)
	}
	want := []string{
		"folder /docs",
		"folder /docs/api",
		"file /docs/api/readme.txt",
		"file /docs/a.txt",
		"folder /media",
		"file /media/photo.png",
		"file /README.md",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EnumerateAll =\n%v\nwant\n%v", got, want)
	}

	for _, r := range recs {
		if r.PathSegments.String() != r.FullPath {
			t.Errorf("%s: segments %v disagree with full path", r.Name, r.PathSegments)
		}
		if r.Node == nil {
			t.Errorf("%s: missing node", r.Name)
		}
	}
}

func TestEnumerateAllDeterministic(t *testing.T) {
	root := sampleTree()
	a := EnumerateAll(root)
	b := EnumerateAll(root)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].FullPath != b[i].FullPath || a[i].Kind != b[i].Kind {
			t.Errorf("record %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEnumerateAllGlobalShadow(t *testing.T) {
	root := folder("", folder("docs", folder("api")), file("api"), sizedFile("api.txt", 0))
	for _, r := range EnumerateAll(root) {
		if r.Kind == models.KindFile && r.Name == "api" {
			t.Errorf("placeholder file /api should be shadowed by folder /docs/api")
		}
	}
}

func TestFilterPaths(t *testing.T) {
	recs := EnumerateAll(sampleTree())

	got := FilterPaths(recs, "DOCS/a", 0)
	var paths []string
	for _, r := range got {
		paths = append(paths, r.FullPath)
	}
	want := []string{"/docs/api", "/docs/api/readme.txt", "/docs/a.txt"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("FilterPaths = %v, want %v", paths, want)
	}

	if n := len(FilterPaths(recs, "/", 0)); n != 0 {
		t.Errorf("FilterPaths(/) returned %d records", n)
	}
	if n := len(FilterPaths(recs, "  ", 0)); n != 0 {
		t.Errorf("FilterPaths(blank) returned %d records", n)
	}
	if n := len(FilterPaths(recs, "o", 2)); n != 2 {
		t.Errorf("FilterPaths limit: got %d records, want 2", n)
	}
}
