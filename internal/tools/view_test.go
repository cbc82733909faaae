package tools

import (
	"context"
	"strings"
	"testing"
)

// ─── ViewDocumentTool ────────────────────────────────────────────────────────

func TestViewDocumentTool_Definition(t *testing.T) {
	def := NewViewDocumentTool(nil).Definition()

	if def.Name != "view_document" {
		t.Errorf("tool name = %q, want %q", def.Name, "view_document")
	}
	requireProps(t, def, "document")
	requireRequired(t, def, "document")
}

func TestViewDocumentTool_Outline(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewDocumentTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"document": "/api/authentication.md",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## Authentication") {
		t.Errorf("expected title header, got: %s", text)
	}
	if !strings.Contains(text, "**Completion:** 40%") {
		t.Error("expected frontmatter completion")
	}
	if !strings.Contains(text, "**Tasks:** 0/2 completed") {
		t.Error("expected task progress")
	}
	for _, line := range []string{
		"- `authentication` Authentication",
		"  - `setup` Setup",
		"    - `key-rotation` Key Rotation",
		"  - `tasks` Tasks",
	} {
		if !strings.Contains(text, line) {
			t.Errorf("outline missing %q in: %s", line, text)
		}
	}
}

func TestViewDocumentTool_NoSections(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/scratch.md", "Just prose, no headings.\n")
	tool := NewViewDocumentTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"document": "/scratch.md",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## scratch") {
		t.Errorf("title should fall back to the filename stem, got: %s", text)
	}
	if !strings.Contains(text, "No sections yet") {
		t.Error("expected empty-outline message")
	}
}

func TestViewDocumentTool_NotFound(t *testing.T) {
	e := newEnv(t)
	tool := NewViewDocumentTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"document": "/missing.md",
	}))
	mustBeToolError(t, result, err, "not found")
}

// ─── ViewSectionTool ─────────────────────────────────────────────────────────

func TestViewSectionTool_Definition(t *testing.T) {
	def := NewViewSectionTool(nil).Definition()

	if def.Name != "view_section" {
		t.Errorf("tool name = %q, want %q", def.Name, "view_section")
	}
	requireProps(t, def, "sections", "document")
	requireRequired(t, def, "sections")
}

func TestViewSectionTool_EmbeddedRef(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewSectionTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"sections": "/api/authentication.md#setup",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## Sections of /api/authentication.md") {
		t.Errorf("expected document header, got: %s", text)
	}
	if !strings.Contains(text, "## Setup") {
		t.Error("section content should include the heading line")
	}
	if !strings.Contains(text, "Install the token library") {
		t.Error("section content should include the body")
	}
	// The subtree belongs to the section.
	if !strings.Contains(text, "### Key Rotation") {
		t.Error("section content should include subsections")
	}
	if strings.Contains(text, "## Tasks") {
		t.Error("content of a sibling section leaked into the response")
	}
}

func TestViewSectionTool_MultipleSlugs(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewSectionTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"sections": "setup, key-rotation",
		"document": "/api/authentication.md",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "Install the token library") {
		t.Error("first section body missing")
	}
	if !strings.Contains(text, "Rotate signing keys") {
		t.Error("second section body missing")
	}
	if got := strings.Count(text, "\n---\n"); got != 2 {
		t.Errorf("separator count = %d, want 2", got)
	}
}

func TestViewSectionTool_UnknownSlug(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewSectionTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"sections": "/api/authentication.md#nonexistent",
	}))
	mustBeToolError(t, result, err, "SECTION_NOT_FOUND")

	if !strings.Contains(resultText(result), "available=") {
		t.Error("resolution error should list the available slugs")
	}
}

func TestViewSectionTool_BareSlugWithoutDocument(t *testing.T) {
	e := newEnv(t)
	tool := NewViewSectionTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"sections": "setup",
	}))
	mustBeToolError(t, result, err, "MISSING_DOCUMENT_PATH")
}

// ─── ViewTaskTool ────────────────────────────────────────────────────────────

func TestViewTaskTool_Definition(t *testing.T) {
	def := NewViewTaskTool(nil).Definition()

	if def.Name != "view_task" {
		t.Errorf("tool name = %q, want %q", def.Name, "view_task")
	}
	requireProps(t, def, "task", "document")
	requireRequired(t, def, "task")
}

func TestViewTaskTool_InProgress(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewTaskTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task":     "implement-refresh-tokens",
		"document": "/api/authentication.md",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## Task: Implement refresh tokens") {
		t.Errorf("expected task header, got: %s", text)
	}
	if !strings.Contains(text, "**Status:** in_progress") {
		t.Error("expected parsed status")
	}
	if !strings.Contains(text, "rotating refresh tokens") {
		t.Error("expected task body under Content")
	}
}

func TestViewTaskTool_NotATask(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewViewTaskTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task":     "setup",
		"document": "/api/authentication.md",
	}))
	mustBeToolError(t, result, err, "NOT_A_TASK")
}

func TestViewTaskTool_NoTasksSection(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/guide.md", guideDoc)
	tool := NewViewTaskTool(e.store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"task":     "steps",
		"document": "/guide.md",
	}))
	mustBeToolError(t, result, err, "TASK_SECTION_MISSING")
}
