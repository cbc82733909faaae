package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
)

// ViewDocumentTool handles the view_document MCP tool.
// It shows a document's metadata and heading outline without the body text,
// so callers can pick the exact sections to fetch next.
type ViewDocumentTool struct {
	store Store
}

// NewViewDocumentTool creates a ViewDocumentTool.
func NewViewDocumentTool(store Store) *ViewDocumentTool {
	return &ViewDocumentTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("view_document",
		mcp.WithDescription(
			"Show a document's metadata and section outline (headings with their slugs). "+
				"The outline stays cheap even for large documents; fetch section bodies "+
				"selectively with view_section.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Document path, e.g. \"/api/authentication.md\""),
		),
	)
}

// Handle processes the view_document tool call.
func (t *ViewDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := address.ParseDocument(req.GetString("document", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := t.store.GetDocument(doc.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta := document.Meta(snap)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", meta.Title)
	fmt.Fprintf(&sb, "**Path:** %s\n", meta.Path)
	fmt.Fprintf(&sb, "**Namespace:** %s\n", meta.Namespace)
	fmt.Fprintf(&sb, "**Modified:** %s\n", meta.LastModified.Format("2006-01-02 15:04:05"))
	if meta.Completion != nil {
		fmt.Fprintf(&sb, "**Completion:** %d%%\n", *meta.Completion)
	}
	if meta.Tasks.Total > 0 {
		fmt.Fprintf(&sb, "**Tasks:** %d/%d completed\n", meta.Tasks.Completed, meta.Tasks.Total)
	}

	sb.WriteString("\n### Outline\n\n")
	if len(snap.Index.Headings) == 0 {
		sb.WriteString("No sections yet. Add one with `edit_section`.\n")
	} else {
		for _, h := range snap.Index.Headings {
			indent := strings.Repeat("  ", h.Depth-1)
			fmt.Fprintf(&sb, "%s- `%s` %s\n", indent, h.Slug, h.Title)
		}
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	fmt.Fprintf(&sb, "- Read sections with `view_section` (e.g. \"%s#<slug>\")\n", meta.Path)
	sb.WriteString("- Edit sections with `edit_section`\n")
	fmt.Fprintf(&sb, "- See how this document connects to others with `view_relationships`\n")

	return mcp.NewToolResultText(sb.String()), nil
}
