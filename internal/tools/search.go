package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/search"
)

// SearchTool handles the search_documents MCP tool.
// It runs full-text queries against the section index and renders ranked
// matches with snippets.
type SearchTool struct {
	searcher     Searcher
	defaultLimit int
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// SetDefaultLimit sets the result count used when the caller passes no
// limit. Zero keeps the index's built-in default.
func (t *SearchTool) SetDefaultLimit(n int) {
	if n > 0 {
		t.defaultLimit = n
	}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription(
			"Full-text search across every section of the corpus, ranked by relevance "+
				"with snippets. An empty query lists the most recently modified documents. "+
				"Multiple words match together by default; set match_any to OR them, "+
				"fuzzy to prefix-match (\"auth\" finds \"authentication\").",
		),
		mcp.WithString("query",
			mcp.Description("Search terms; empty lists recently modified documents"),
		),
		mcp.WithString("search_in",
			mcp.Description("Restrict matching to fields, comma-separated: title, content, path"),
		),
		mcp.WithString("namespace",
			mcp.Description("Only search one namespace, e.g. \"api\""),
		),
		mcp.WithBoolean("fuzzy",
			mcp.Description("Prefix-match each term (default false)"),
		),
		mcp.WithBoolean("match_any",
			mcp.Description("Match sections containing any term instead of all (default false)"),
		),
		mcp.WithBoolean("group_by_document",
			mcp.Description("Collapse hits into one entry per document (default true)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default 10, capped at 50)"),
		),
	)
}

// Handle processes the search_documents tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))

	results, err := t.searcher.Search(ctx, query, search.Options{
		SearchIn:        splitCSV(req.GetString("search_in", "")),
		Fuzzy:           boolArg(req, "fuzzy", false),
		MatchAny:        boolArg(req, "match_any", false),
		GroupByDocument: boolArg(req, "group_by_document", true),
		Namespace:       strings.TrimSpace(req.GetString("namespace", "")),
		Limit:           intArg(req, "limit", t.defaultLimit),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		if query == "" {
			return mcp.NewToolResultText(
				"The index is empty. Create documents first, or check that the corpus has been indexed.",
			), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"No matches for %q. Try fewer terms, fuzzy: true, or match_any: true.", query,
		)), nil
	}

	var sb strings.Builder
	if query == "" {
		sb.WriteString("## Recently Modified Documents\n\n")
	} else {
		sb.WriteString("## Search Results\n\n")
		fmt.Fprintf(&sb, "**Query:** %s\n", query)
	}
	fmt.Fprintf(&sb, "**Results:** %d\n", len(results))

	for _, r := range results {
		fmt.Fprintf(&sb, "\n### %s — %s\n", r.DocumentPath, r.DocumentTitle)
		fmt.Fprintf(&sb, "_namespace: %s_\n", r.Namespace)
		for _, m := range r.Matches {
			slug := m.Slug
			if slug == "" {
				slug = "(document preamble)"
			}
			fmt.Fprintf(&sb, "\n- `%s` %s (depth %d, score %.2f)\n", slug, m.Title, m.Depth, m.Score)
			if snippet := strings.TrimSpace(m.Snippet); snippet != "" {
				fmt.Fprintf(&sb, "  > %s\n", strings.ReplaceAll(snippet, "\n", " "))
			}
		}
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	sb.WriteString("- Read a matching section with `view_section` (\"<path>#<slug>\")\n")
	sb.WriteString("- Open a whole document with `view_document`\n")

	return mcp.NewToolResultText(sb.String()), nil
}
