package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
)

// ViewSectionTool handles the view_section MCP tool.
// It fetches one or more sections of a document, heading lines included,
// without loading the rest of the document into the conversation.
type ViewSectionTool struct {
	store Store
}

// NewViewSectionTool creates a ViewSectionTool.
func NewViewSectionTool(store Store) *ViewSectionTool {
	return &ViewSectionTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("view_section",
		mcp.WithDescription(
			"Read one or more sections of a document by slug. "+
				"Accepts \"/doc.md#slug\", a comma-separated slug list (\"/doc.md#setup,tasks\"), "+
				"or bare slugs combined with the document parameter. "+
				"Slugs may be hierarchical (\"api/jwt-setup\") to disambiguate duplicates.",
		),
		mcp.WithString("sections",
			mcp.Required(),
			mcp.Description("Section reference(s): \"/doc.md#slug\" or \"slug,other-slug\" with document set"),
		),
		mcp.WithString("document",
			mcp.Description("Context document path for bare slugs"),
		),
	)
}

// Handle processes the view_section tool call.
func (t *ViewSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath, slugs, err := address.ParseSectionRefs(
		req.GetString("sections", ""),
		req.GetString("document", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Sections of %s\n", docPath)
	for _, slug := range slugs {
		_, h, err := address.ResolveSection(snap.Index, snap.Address, slug)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sb.WriteString("\n---\n\n")
		sb.WriteString(strings.TrimRight(snap.SectionContent(h), "\n"))
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}
