package tools

import (
	"context"
	"strings"
	"testing"
)

func TestSearchTool_Definition(t *testing.T) {
	def := NewSearchTool(nil).Definition()

	if def.Name != "search_documents" {
		t.Errorf("tool name = %q, want %q", def.Name, "search_documents")
	}
	requireProps(t, def, "query", "search_in", "namespace", "fuzzy", "match_any", "group_by_document", "limit")
}

func TestSearchTool_GroupsByDocument(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	e.seed(t, "/guide.md", guideDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "signing",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## Search Results") || !strings.Contains(text, "**Query:** signing") {
		t.Errorf("expected results header, got: %s", text)
	}
	// Two sections of the same document collapse into one entry.
	if got := strings.Count(text, "### /api/authentication.md"); got != 1 {
		t.Errorf("document entries = %d, want 1", got)
	}
	if !strings.Contains(text, "- `setup`") || !strings.Contains(text, "- `key-rotation`") {
		t.Errorf("expected both matching sections, got: %s", text)
	}
	if !strings.Contains(text, "### /guide.md") {
		t.Error("expected the second matching document")
	}
}

func TestSearchTool_FlatResults(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":             "signing",
		"group_by_document": false,
	}))
	mustNotError(t, result, err)

	if got := strings.Count(resultText(result), "### /api/authentication.md"); got != 2 {
		t.Errorf("flat entries = %d, want one per matching section (2)", got)
	}
}

func TestSearchTool_Fuzzy(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "authent",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "No matches") {
		t.Errorf("a bare prefix should not match exactly, got: %s", resultText(result))
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "authent",
		"fuzzy": true,
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "### /api/authentication.md") {
		t.Errorf("fuzzy prefix should match, got: %s", resultText(result))
	}
}

func TestSearchTool_MatchAny(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "ninety redirect",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "No matches") {
		t.Error("all terms must match by default")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":     "ninety redirect",
		"match_any": true,
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "- `key-rotation`") {
		t.Errorf("match_any should find the section with one term, got: %s", resultText(result))
	}
}

func TestSearchTool_SearchIn(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewSearchTool(e.index)

	// "keys" appears in content only.
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query": "keys",
	}))
	mustNotError(t, result, err)
	if strings.Contains(resultText(result), "No matches") {
		t.Fatal("content search should find the term")
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":     "keys",
		"search_in": "title",
	}))
	mustNotError(t, result, err)
	if !strings.Contains(resultText(result), "No matches") {
		t.Errorf("title-only search should miss a content term, got: %s", resultText(result))
	}
}

func TestSearchTool_NamespaceFilter(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	e.seed(t, "/guide.md", guideDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":     "signing",
		"namespace": "api",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "### /api/authentication.md") {
		t.Error("expected the api document")
	}
	if strings.Contains(text, "/guide.md") {
		t.Error("namespace filter should exclude other namespaces")
	}
}

func TestSearchTool_EmptyQueryListsRecent(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	e.seed(t, "/guide.md", guideDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "## Recently Modified Documents") {
		t.Errorf("expected recent fallback, got: %s", text)
	}
	if !strings.Contains(text, "/api/authentication.md") || !strings.Contains(text, "/guide.md") {
		t.Error("recent listing should include both documents")
	}
}

func TestSearchTool_EmptyIndex(t *testing.T) {
	e := newEnv(t)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "The index is empty") {
		t.Errorf("expected empty-index message, got: %s", resultText(result))
	}
}

func TestSearchTool_Limit(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	e.seed(t, "/guide.md", guideDoc)
	tool := NewSearchTool(e.index)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":             "signing",
		"group_by_document": false,
		"limit":             float64(1),
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "**Results:** 1") {
		t.Errorf("expected a single result, got: %s", resultText(result))
	}
}

func TestSearchTool_DefaultLimitSetter(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "/api/authentication.md", authDoc)
	tool := NewSearchTool(e.index)
	tool.SetDefaultLimit(1)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":             "signing",
		"group_by_document": false,
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "**Results:** 1") {
		t.Errorf("expected the configured limit to apply, got: %s", resultText(result))
	}

	// An explicit limit still wins over the configured default.
	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"query":             "signing",
		"group_by_document": false,
		"limit":             float64(10),
	}))
	mustNotError(t, result, err)

	if !strings.Contains(resultText(result), "**Results:** 2") {
		t.Errorf("expected the explicit limit to win, got: %s", resultText(result))
	}
}
