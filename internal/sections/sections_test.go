package sections

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
)

// fakeStore keeps documents in memory and can be told to fail writes,
// either per path or after a number of successful writes.
type fakeStore struct {
	docs       map[string]string
	failWrites map[string]bool
	failAfter  int // fail every write after this many successes (0 = never)
	writes     int
}

func newFakeStore(docs map[string]string) *fakeStore {
	return &fakeStore{docs: docs, failWrites: map[string]bool{}}
}

func (f *fakeStore) GetDocument(path string) (*document.Snapshot, error) {
	raw, ok := f.docs[path]
	if !ok {
		return nil, &document.NotFoundError{Path: path}
	}
	return document.NewSnapshot(path, raw, time.Time{}), nil
}

func (f *fakeStore) WriteDocument(path, content string) error {
	if f.failWrites[path] {
		return errors.New("write refused")
	}
	if f.failAfter > 0 && f.writes >= f.failAfter {
		return errors.New("write refused")
	}
	f.docs[path] = content
	f.writes++
	return nil
}

const guideDoc = `# API Guide

Intro.

## Authentication

How to authenticate.

### JWT Setup

Use RS256.

## Endpoints

List.
`

func guideEngine() (*Engine, *fakeStore) {
	store := newFakeStore(map[string]string{"/guide.md": guideDoc})
	return NewEngine(store), store
}

func slugsOf(raw string) []string {
	snap := document.NewSnapshot("/x.md", raw, time.Time{})
	var out []string
	for _, h := range snap.Index.Headings {
		out = append(out, h.Slug)
	}
	return out
}

func TestValidateOp(t *testing.T) {
	tests := []struct {
		name    string
		input   Op
		wantErr bool
	}{
		{"replace is valid", OpReplace, false},
		{"append is valid", OpAppend, false},
		{"prepend is valid", OpPrepend, false},
		{"insert_before is valid", OpInsertBefore, false},
		{"insert_after is valid", OpInsertAfter, false},
		{"append_child is valid", OpAppendChild, false},
		{"remove is valid", OpRemove, false},
		{"empty is invalid", Op(""), true},
		{"unknown is invalid", Op("upsert"), true},
		{"case sensitive", Op("Replace"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOp(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestApplyReplace(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpReplace, Content: "New auth text."})
	if err != nil {
		t.Fatalf("Apply(replace) error = %v", err)
	}
	if res.Action != ActionEdited || res.Section != "authentication" || res.Depth != 2 {
		t.Errorf("Apply(replace) result = %+v, want edited authentication depth 2", res)
	}

	want := `# API Guide

Intro.

## Authentication

New auth text.

## Endpoints

List.
`
	if store.docs["/guide.md"] != want {
		t.Errorf("document after replace = %q, want %q", store.docs["/guide.md"], want)
	}
	// The subtree under the replaced body is gone.
	if got := slugsOf(store.docs["/guide.md"]); len(got) != 3 {
		t.Errorf("headings after replace = %v, want 3 entries", got)
	}
}

func TestApplyAppend(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "jwt-setup", Op: OpAppend, Content: "Rotate keys yearly."})
	if err != nil {
		t.Fatalf("Apply(append) error = %v", err)
	}
	if res.Action != ActionEdited || res.Section != "jwt-setup" || res.Depth != 3 {
		t.Errorf("Apply(append) result = %+v, want edited jwt-setup depth 3", res)
	}

	got := store.docs["/guide.md"]
	if !strings.Contains(got, "Use RS256.\n\nRotate keys yearly.\n\n## Endpoints") {
		t.Errorf("document after append = %q, want new text after existing body", got)
	}
}

func TestApplyPrepend(t *testing.T) {
	e, store := guideEngine()

	if _, err := e.Apply(Request{Document: "/guide.md", Ref: "jwt-setup", Op: OpPrepend, Content: "Read this first."}); err != nil {
		t.Fatalf("Apply(prepend) error = %v", err)
	}

	got := store.docs["/guide.md"]
	if !strings.Contains(got, "### JWT Setup\n\nRead this first.\n\nUse RS256.") {
		t.Errorf("document after prepend = %q, want new text before existing body", got)
	}
}

func TestApplyInsertBefore(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpInsertBefore, Title: "Overview", Content: "The shape of things."})
	if err != nil {
		t.Fatalf("Apply(insert_before) error = %v", err)
	}
	if res.Action != ActionCreated || res.Section != "overview" || res.Depth != 2 {
		t.Errorf("Apply(insert_before) result = %+v, want created overview depth 2", res)
	}

	got := slugsOf(store.docs["/guide.md"])
	want := []string{"api-guide", "overview", "authentication", "jwt-setup", "endpoints"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("headings = %v, want %v", got, want)
	}
}

func TestApplyInsertAfter(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpInsertAfter, Title: "Rate Limits", Content: "60 requests per minute."})
	if err != nil {
		t.Fatalf("Apply(insert_after) error = %v", err)
	}
	if res.Section != "rate-limits" || res.Depth != 2 {
		t.Errorf("Apply(insert_after) result = %+v, want rate-limits depth 2", res)
	}

	// The sibling lands after the full extent, subtree included.
	got := slugsOf(store.docs["/guide.md"])
	want := []string{"api-guide", "authentication", "jwt-setup", "rate-limits", "endpoints"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("headings = %v, want %v", got, want)
	}
}

func TestApplyInsertDuplicateTitleGetsSuffix(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "jwt-setup", Op: OpInsertAfter, Title: "Authentication", Content: "again"})
	if err != nil {
		t.Fatalf("Apply(insert_after) error = %v", err)
	}
	if res.Section != "authentication-2" {
		t.Errorf("Apply(insert_after) section = %q, want authentication-2", res.Section)
	}
	if !strings.Contains(store.docs["/guide.md"], "### Authentication") {
		t.Error("new heading missing from document")
	}
}

func TestApplyAppendChild(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpAppendChild, Title: "Token Refresh", Content: "Rotate."})
	if err != nil {
		t.Fatalf("Apply(append_child) error = %v", err)
	}
	if res.Action != ActionCreated || res.Section != "token-refresh" || res.Depth != 3 {
		t.Errorf("Apply(append_child) result = %+v, want created token-refresh depth 3", res)
	}

	// Lands after all existing descendants, before the next sibling.
	got := slugsOf(store.docs["/guide.md"])
	want := []string{"api-guide", "authentication", "jwt-setup", "token-refresh", "endpoints"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("headings = %v, want %v", got, want)
	}
}

func TestApplyAppendChildDepthLimit(t *testing.T) {
	store := newFakeStore(map[string]string{
		"/deep.md": "# A\n\n## B\n\n### C\n\n#### D\n\n##### E\n\n###### F\n\ntext\n",
	})
	e := NewEngine(store)

	_, err := e.Apply(Request{Document: "/deep.md", Ref: "f", Op: OpAppendChild, Title: "G", Content: "x"})
	if err == nil || !strings.Contains(err.Error(), "depth") {
		t.Errorf("Apply(append_child at depth 6) error = %v, want depth error", err)
	}
}

func TestApplyRemove(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "jwt-setup", Op: OpRemove})
	if err != nil {
		t.Fatalf("Apply(remove) error = %v", err)
	}
	if res.Action != ActionRemoved || res.Section != "jwt-setup" {
		t.Errorf("Apply(remove) result = %+v, want removed jwt-setup", res)
	}
	if !strings.Contains(res.RemovedContent, "### JWT Setup") || !strings.Contains(res.RemovedContent, "Use RS256.") {
		t.Errorf("RemovedContent = %q, want the full removed section", res.RemovedContent)
	}
	if strings.Contains(store.docs["/guide.md"], "JWT Setup") {
		t.Errorf("document still contains removed section: %q", store.docs["/guide.md"])
	}
}

func TestApplyRemoveSubtree(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpRemove})
	if err != nil {
		t.Fatalf("Apply(remove) error = %v", err)
	}
	if !strings.Contains(res.RemovedContent, "### JWT Setup") {
		t.Errorf("RemovedContent = %q, want subtree included", res.RemovedContent)
	}

	want := "# API Guide\n\nIntro.\n\n## Endpoints\n\nList.\n"
	if store.docs["/guide.md"] != want {
		t.Errorf("document after remove = %q, want %q", store.docs["/guide.md"], want)
	}
}

// append_child followed by remove of the created slug restores the exact
// pre-mutation bytes: creation is a pure structural addition.
func TestAppendChildRemoveRoundTrip(t *testing.T) {
	e, store := guideEngine()

	res, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpAppendChild, Title: "Scratch", Content: "temp"})
	if err != nil {
		t.Fatalf("Apply(append_child) error = %v", err)
	}
	if _, err := e.Apply(Request{Document: "/guide.md", Ref: res.Section, Op: OpRemove}); err != nil {
		t.Fatalf("Apply(remove) error = %v", err)
	}

	if store.docs["/guide.md"] != guideDoc {
		t.Errorf("round trip result = %q, want original document", store.docs["/guide.md"])
	}
	if got, want := slugsOf(store.docs["/guide.md"]), slugsOf(guideDoc); !reflect.DeepEqual(got, want) {
		t.Errorf("heading list after round trip = %v, want %v", got, want)
	}
}

func TestApplyValidation(t *testing.T) {
	e, _ := guideEngine()

	tests := []struct {
		name    string
		req     Request
		wantSub string
	}{
		{
			name:    "unknown op",
			req:     Request{Document: "/guide.md", Ref: "authentication", Op: "upsert", Content: "x"},
			wantSub: "invalid operation",
		},
		{
			name:    "replace requires content",
			req:     Request{Document: "/guide.md", Ref: "authentication", Op: OpReplace},
			wantSub: "content is required",
		},
		{
			name:    "append requires content",
			req:     Request{Document: "/guide.md", Ref: "authentication", Op: OpAppend, Content: "   "},
			wantSub: "content is required",
		},
		{
			name:    "insert requires title",
			req:     Request{Document: "/guide.md", Ref: "authentication", Op: OpInsertBefore, Content: "x"},
			wantSub: "title is required",
		},
		{
			name:    "append_child requires title",
			req:     Request{Document: "/guide.md", Ref: "authentication", Op: OpAppendChild, Content: "x"},
			wantSub: "title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Apply(tt.req)
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Apply() error = %v, want containing %q", err, tt.wantSub)
			}
		})
	}
}

func TestApplyRemoveNeedsNoContent(t *testing.T) {
	e, _ := guideEngine()

	if _, err := e.Apply(Request{Document: "/guide.md", Ref: "jwt-setup", Op: OpRemove}); err != nil {
		t.Errorf("Apply(remove without content) error = %v, want success", err)
	}
}

func TestApplyStructuralErrors(t *testing.T) {
	e, store := guideEngine()

	_, err := e.Apply(Request{Document: "/guide.md", Ref: "nonexistent", Op: OpReplace, Content: "x"})
	if !address.IsCode(err, address.CodeSectionNotFound) {
		t.Errorf("Apply(unknown section) error = %v, want SECTION_NOT_FOUND", err)
	}

	_, err = e.Apply(Request{Document: "/missing.md", Ref: "a", Op: OpReplace, Content: "x"})
	if !document.IsNotFound(err) {
		t.Errorf("Apply(unknown document) error = %v, want NotFoundError", err)
	}

	if store.docs["/guide.md"] != guideDoc {
		t.Error("failed operations must not modify the document")
	}
}

func TestApplyWriteFailureWrapped(t *testing.T) {
	e, store := guideEngine()
	store.failWrites["/guide.md"] = true

	_, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication", Op: OpReplace, Content: "x"})
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Apply() error = %T %v, want *OperationError", err, err)
	}
	if opErr.Op != OpReplace || opErr.Ref != "authentication" {
		t.Errorf("OperationError = %+v, want op and ref recorded", opErr)
	}
}

func TestApplyPreservesFrontMatter(t *testing.T) {
	const front = "---\ntitle: Guide\nowner: docs-team\n---\n"
	store := newFakeStore(map[string]string{"/fm.md": front + "# Doc\n\n## Section\n\nold\n"})
	e := NewEngine(store)

	if _, err := e.Apply(Request{Document: "/fm.md", Ref: "section", Op: OpReplace, Content: "new"}); err != nil {
		t.Fatalf("Apply(replace) error = %v", err)
	}

	got := store.docs["/fm.md"]
	if !strings.HasPrefix(got, front) {
		t.Errorf("frontmatter disturbed: %q", got)
	}
	if !strings.Contains(got, "## Section\n\nnew\n") {
		t.Errorf("body not replaced: %q", got)
	}
}

func TestApplyHierarchicalRef(t *testing.T) {
	e, store := guideEngine()

	if _, err := e.Apply(Request{Document: "/guide.md", Ref: "authentication/jwt-setup", Op: OpReplace, Content: "Hierarchically addressed."}); err != nil {
		t.Fatalf("Apply(hierarchical ref) error = %v", err)
	}
	if !strings.Contains(store.docs["/guide.md"], "Hierarchically addressed.") {
		t.Error("replacement missing from document")
	}
}
