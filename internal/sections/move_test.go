package sections

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/docweave/docweave/internal/address"
)

const otherDoc = `# Other

## Landing

pad
`

func moveEngine() (*Engine, *fakeStore) {
	store := newFakeStore(map[string]string{
		"/guide.md": guideDoc,
		"/other.md": otherDoc,
	})
	return NewEngine(store), store
}

func TestValidatePosition(t *testing.T) {
	tests := []struct {
		name    string
		input   Position
		wantErr bool
	}{
		{"before is valid", PositionBefore, false},
		{"after is valid", PositionAfter, false},
		{"child is valid", PositionChild, false},
		{"empty is invalid", Position(""), true},
		{"unknown is invalid", Position("above"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePosition(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestMoveCrossDocument(t *testing.T) {
	e, store := moveEngine()

	res, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "authentication",
		DestDoc:   "/other.md",
		DestRef:   "landing",
		Position:  PositionAfter,
	})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if res.Section != "authentication" || res.From != "/guide.md" || res.To != "/other.md" || res.Depth != 2 {
		t.Errorf("Move() result = %+v, want authentication /guide.md -> /other.md depth 2", res)
	}

	wantSrc := "# API Guide\n\nIntro.\n\n## Endpoints\n\nList.\n"
	if store.docs["/guide.md"] != wantSrc {
		t.Errorf("source after move = %q, want %q", store.docs["/guide.md"], wantSrc)
	}

	wantDst := otherDoc + "\n## Authentication\n\nHow to authenticate.\n\n### JWT Setup\n\nUse RS256.\n"
	if store.docs["/other.md"] != wantDst {
		t.Errorf("destination after move = %q, want %q", store.docs["/other.md"], wantDst)
	}

	// The subtree traveled and is addressable at the destination.
	got := slugsOf(store.docs["/other.md"])
	want := []string{"other", "landing", "authentication", "jwt-setup"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("destination headings = %v, want %v", got, want)
	}
}

func TestMoveCrossDocumentChildPosition(t *testing.T) {
	e, store := moveEngine()

	res, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "jwt-setup",
		DestDoc:   "/other.md",
		DestRef:   "landing",
		Position:  PositionChild,
	})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if res.Depth != 3 {
		t.Errorf("Move() depth = %d, want 3: child sits one level below the reference", res.Depth)
	}
	if !strings.Contains(store.docs["/other.md"], "### JWT Setup") {
		t.Errorf("destination = %q, want the section re-leveled to depth 3", store.docs["/other.md"])
	}
}

func TestMoveCrossDocumentCreateFails(t *testing.T) {
	e, store := moveEngine()

	_, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "jwt-setup",
		DestDoc:   "/other.md",
		DestRef:   "missing",
		Position:  PositionAfter,
	})
	if !address.IsCode(err, address.CodeSectionNotFound) {
		t.Fatalf("Move() error = %v, want SECTION_NOT_FOUND", err)
	}

	// Creation failed before anything was removed.
	if store.docs["/guide.md"] != guideDoc {
		t.Error("source modified despite failed creation")
	}
	if store.docs["/other.md"] != otherDoc {
		t.Error("destination modified despite failed creation")
	}
}

func TestMoveCrossDocumentRemoveFails(t *testing.T) {
	e, store := moveEngine()
	store.failWrites["/guide.md"] = true

	_, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "jwt-setup",
		DestDoc:   "/other.md",
		DestRef:   "landing",
		Position:  PositionAfter,
	})
	var dup *MoveDuplicatedError
	if !errors.As(err, &dup) {
		t.Fatalf("Move() error = %T %v, want *MoveDuplicatedError", err, err)
	}
	if dup.Section != "jwt-setup" || dup.Source != "/guide.md" || dup.Dest != "/other.md" {
		t.Errorf("MoveDuplicatedError = %+v, want section and both documents recorded", dup)
	}
	if !strings.Contains(err.Error(), "content may be duplicated") {
		t.Errorf("error = %v, want duplication warning", err)
	}

	// The copy landed; the source removal did not.
	if !strings.Contains(store.docs["/other.md"], "JWT Setup") {
		t.Error("destination missing the copied section")
	}
	if !strings.Contains(store.docs["/guide.md"], "JWT Setup") {
		t.Error("source should still hold the section after a failed removal")
	}
}

func TestMoveSameDocument(t *testing.T) {
	e, store := moveEngine()

	res, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "jwt-setup",
		DestDoc:   "/guide.md",
		DestRef:   "endpoints",
		Position:  PositionAfter,
	})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if res.Section != "jwt-setup" || res.Depth != 2 {
		t.Errorf("Move() result = %+v, want jwt-setup at depth 2", res)
	}

	want := "# API Guide\n\nIntro.\n\n## Authentication\n\nHow to authenticate.\n\n## Endpoints\n\nList.\n\n## JWT Setup\n\nUse RS256.\n"
	if store.docs["/guide.md"] != want {
		t.Errorf("document after move = %q, want %q", store.docs["/guide.md"], want)
	}
}

func TestMoveSameDocumentRollback(t *testing.T) {
	e, store := moveEngine()

	// The destination reference lives inside the moved subtree, so it no
	// longer resolves once the source is removed. The move must restore
	// the document byte for byte.
	_, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "authentication",
		DestDoc:   "/guide.md",
		DestRef:   "jwt-setup",
		Position:  PositionAfter,
	})
	if err == nil || !strings.Contains(err.Error(), "rolled back") {
		t.Fatalf("Move() error = %v, want rollback error", err)
	}
	if store.docs["/guide.md"] != guideDoc {
		t.Errorf("document after rollback = %q, want original bytes", store.docs["/guide.md"])
	}
}

func TestMoveSameDocumentRollbackWriteFails(t *testing.T) {
	e, store := moveEngine()
	store.failAfter = 1 // removal succeeds, the rollback write does not

	_, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "authentication",
		DestDoc:   "/guide.md",
		DestRef:   "jwt-setup",
		Position:  PositionAfter,
	})
	var loss *MoveDataLossError
	if !errors.As(err, &loss) {
		t.Fatalf("Move() error = %T %v, want *MoveDataLossError", err, err)
	}
	if loss.Section != "authentication" || loss.Document != "/guide.md" {
		t.Errorf("MoveDataLossError = %+v, want section and document recorded", loss)
	}
	if !strings.Contains(loss.RemovedContent, "## Authentication") || !strings.Contains(loss.RemovedContent, "### JWT Setup") {
		t.Errorf("RemovedContent = %q, want the full removed subtree for recovery", loss.RemovedContent)
	}
	if !strings.Contains(err.Error(), "data may be lost") {
		t.Errorf("error = %v, want data loss warning", err)
	}
}

func TestMoveEmptyBodySection(t *testing.T) {
	store := newFakeStore(map[string]string{
		"/src.md": "# Doc\n\n## Placeholder\n\n## Target\n\ntext\n",
		"/dst.md": otherDoc,
	})
	e := NewEngine(store)

	res, err := e.Move(MoveRequest{
		SourceDoc: "/src.md",
		SourceRef: "placeholder",
		DestDoc:   "/dst.md",
		DestRef:   "landing",
		Position:  PositionAfter,
	})
	if err != nil {
		t.Fatalf("Move(empty section) error = %v", err)
	}
	if res.Section != "placeholder" {
		t.Errorf("Move() section = %q, want placeholder", res.Section)
	}
	if strings.Contains(store.docs["/src.md"], "Placeholder") {
		t.Error("source should no longer contain the moved section")
	}
	if !strings.Contains(store.docs["/dst.md"], "## Placeholder") {
		t.Error("destination missing the moved heading")
	}
}

func TestMoveInvalidPosition(t *testing.T) {
	e, _ := moveEngine()

	_, err := e.Move(MoveRequest{
		SourceDoc: "/guide.md",
		SourceRef: "jwt-setup",
		DestDoc:   "/other.md",
		DestRef:   "landing",
		Position:  "sideways",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid position") {
		t.Errorf("Move() error = %v, want invalid position", err)
	}
}
