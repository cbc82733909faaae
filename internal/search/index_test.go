package search

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/docweave/docweave/internal/document"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func snapshot(path, raw string, mod time.Time) *document.Snapshot {
	return document.NewSnapshot(path, raw, mod)
}

type fakeCorpus struct {
	docs map[string]string
}

func (f fakeCorpus) ListDocuments() ([]string, error) {
	var paths []string
	for p := range f.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f fakeCorpus) GetDocument(path string) (*document.Snapshot, error) {
	raw, ok := f.docs[path]
	if !ok {
		return nil, &document.NotFoundError{Path: path}
	}
	return document.NewSnapshot(path, raw, time.Now()), nil
}

func TestIndexAndSearch(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	doc := "# API Guide\n\n## Authentication\n\nJWT tokens expire hourly.\n\n## Endpoints\n\nPlain listing.\n"
	if err := ix.IndexDocument(snapshot("/api/guide.md", doc, time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	results, err := ix.Search(ctx, "tokens", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	r := results[0]
	if r.DocumentPath != "/api/guide.md" || r.Namespace != "api" {
		t.Errorf("result = %+v, want /api/guide.md in namespace api", r)
	}
	if len(r.Matches) != 1 || r.Matches[0].Slug != "authentication" {
		t.Errorf("matches = %+v, want one hit on authentication", r.Matches)
	}
	if r.Matches[0].Score <= 0 {
		t.Errorf("Score = %v, want positive", r.Matches[0].Score)
	}
}

func TestSearchFuzzyPrefix(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	doc := "# Guide\n\n## Security\n\nAuthentication uses RS256.\n"
	if err := ix.IndexDocument(snapshot("/guide.md", doc, time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	exact, err := ix.Search(ctx, "auth", Options{})
	if err != nil {
		t.Fatalf("Search(exact) error = %v", err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search for partial token returned %d results, want 0", len(exact))
	}

	fuzzy, err := ix.Search(ctx, "auth", Options{Fuzzy: true})
	if err != nil {
		t.Fatalf("Search(fuzzy) error = %v", err)
	}
	if len(fuzzy) != 1 {
		t.Errorf("fuzzy search returned %d results, want 1", len(fuzzy))
	}
}

func TestSearchInColumns(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	doc := "# Runbook\n\n## Setup\n\nHow to deploy the service.\n"
	if err := ix.IndexDocument(snapshot("/runbook.md", doc, time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	titleOnly, err := ix.Search(ctx, "deploy", Options{SearchIn: []string{"title"}})
	if err != nil {
		t.Fatalf("Search(title) error = %v", err)
	}
	if len(titleOnly) != 0 {
		t.Errorf("title-only search found body text: %+v", titleOnly)
	}

	contentOnly, err := ix.Search(ctx, "deploy", Options{SearchIn: []string{"content"}})
	if err != nil {
		t.Fatalf("Search(content) error = %v", err)
	}
	if len(contentOnly) != 1 {
		t.Errorf("content search returned %d results, want 1", len(contentOnly))
	}
}

func TestSearchGroupByDocument(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	doc := "# Infra\n\n## Cluster\n\nkubernetes nodes\n\n## Deploy\n\nkubernetes manifests\n"
	if err := ix.IndexDocument(snapshot("/infra.md", doc, time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	flat, err := ix.Search(ctx, "kubernetes", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("ungrouped results = %d, want 2", len(flat))
	}

	grouped, err := ix.Search(ctx, "kubernetes", Options{GroupByDocument: true})
	if err != nil {
		t.Fatalf("Search(grouped) error = %v", err)
	}
	if len(grouped) != 1 {
		t.Fatalf("grouped results = %d, want 1", len(grouped))
	}
	if len(grouped[0].Matches) != 2 {
		t.Errorf("grouped matches = %d, want 2", len(grouped[0].Matches))
	}
}

func TestSearchEmptyQueryReturnsRecent(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	if err := ix.IndexDocument(snapshot("/old.md", "# Old\n\nstale\n", old)); err != nil {
		t.Fatalf("IndexDocument(old) error = %v", err)
	}
	if err := ix.IndexDocument(snapshot("/new.md", "# New\n\nfresh\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(new) error = %v", err)
	}

	results, err := ix.Search(ctx, "  ", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].DocumentPath != "/new.md" {
		t.Errorf("first recent = %s, want /new.md (most recently modified)", results[0].DocumentPath)
	}
}

func TestSearchMatchAny(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if err := ix.IndexDocument(snapshot("/a.md", "# A\n\nalpha only\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(a) error = %v", err)
	}
	if err := ix.IndexDocument(snapshot("/b.md", "# B\n\nbeta only\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(b) error = %v", err)
	}

	all, err := ix.Search(ctx, "alpha beta", Options{})
	if err != nil {
		t.Fatalf("Search(all terms) error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("AND search returned %d results, want 0: no document holds both terms", len(all))
	}

	any, err := ix.Search(ctx, "alpha beta", Options{MatchAny: true})
	if err != nil {
		t.Fatalf("Search(any term) error = %v", err)
	}
	if len(any) != 2 {
		t.Errorf("OR search returned %d results, want 2", len(any))
	}
}

func TestSearchNamespaceFilter(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if err := ix.IndexDocument(snapshot("/api/a.md", "# A\n\nshared term\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(a) error = %v", err)
	}
	if err := ix.IndexDocument(snapshot("/guides/b.md", "# B\n\nshared term\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(b) error = %v", err)
	}

	results, err := ix.Search(ctx, "shared", Options{Namespace: "api"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].DocumentPath != "/api/a.md" {
		t.Errorf("results = %+v, want only /api/a.md", results)
	}
}

func TestRemoveDocument(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if err := ix.IndexDocument(snapshot("/gone.md", "# Gone\n\nfindable\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if err := ix.RemoveDocument("/gone.md"); err != nil {
		t.Fatalf("RemoveDocument() error = %v", err)
	}

	results, err := ix.Search(ctx, "findable", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results after removal = %+v, want none", results)
	}
}

func TestIndexReplacesOnUpdate(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if err := ix.IndexDocument(snapshot("/doc.md", "# Doc\n\nalpha\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(v1) error = %v", err)
	}
	if err := ix.IndexDocument(snapshot("/doc.md", "# Doc\n\nbeta\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument(v2) error = %v", err)
	}

	if res, _ := ix.Search(ctx, "alpha", Options{}); len(res) != 0 {
		t.Errorf("stale content still indexed: %+v", res)
	}
	if res, _ := ix.Search(ctx, "beta", Options{}); len(res) != 1 {
		t.Errorf("new content not indexed: %+v", res)
	}
}

func TestReindexPrunesMissing(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if err := ix.IndexDocument(snapshot("/removed.md", "# Removed\n\nobsolete\n", time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	corpus := fakeCorpus{docs: map[string]string{
		"/kept.md": "# Kept\n\ncurrent\n",
	}}
	n, err := ix.Reindex(ctx, corpus)
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Reindex() = %d, want 1", n)
	}

	if res, _ := ix.Search(ctx, "obsolete", Options{}); len(res) != 0 {
		t.Errorf("pruned document still searchable: %+v", res)
	}
	if res, _ := ix.Search(ctx, "current", Options{}); len(res) != 1 {
		t.Errorf("walked document not indexed: %+v", res)
	}
}

func TestStats(t *testing.T) {
	ix := newTestIndex(t)

	doc := "# Doc\n\n## One\n\nx\n\n## Two\n\ny\n"
	if err := ix.IndexDocument(snapshot("/doc.md", doc, time.Now())); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	st, err := ix.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Documents != 1 {
		t.Errorf("Documents = %d, want 1", st.Documents)
	}
	if st.Sections != 3 {
		t.Errorf("Sections = %d, want 3 (doc heading plus two subsections)", st.Sections)
	}
	if st.LastIndexed == "" {
		t.Error("LastIndexed is empty")
	}
}
