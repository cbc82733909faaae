package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/sections"
)

// MoveSectionTool handles the move_section MCP tool.
// It relocates a section and its subtree relative to a reference section,
// within one document or across two.
type MoveSectionTool struct {
	store  Store
	engine *sections.Engine
	index  Indexer
}

// NewMoveSectionTool creates a MoveSectionTool.
func NewMoveSectionTool(store Store, engine *sections.Engine, index Indexer) *MoveSectionTool {
	return &MoveSectionTool{store: store, engine: engine, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *MoveSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("move_section",
		mcp.WithDescription(
			"Move a section (with its whole subtree) next to a reference section, "+
				"in the same document or into another one. "+
				"The moved section's depth adapts to its new position. "+
				"If a cross-document move fails halfway, the error says exactly "+
				"where the content ended up.",
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Section to move: \"/doc.md#slug\" or a bare slug with document set"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Reference section at the target: \"/other.md#slug\" or a bare slug (same document as source)"),
		),
		mcp.WithString("position",
			mcp.Description("Where relative to the destination: before, after (default), or child"),
		),
		mcp.WithString("document",
			mcp.Description("Context document path for a bare source slug"),
		),
	)
}

// Handle processes the move_section tool call.
func (t *MoveSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	srcDoc, srcSlug, err := address.ParseSectionRef(
		req.GetString("source", ""),
		req.GetString("document", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("source: %v", err)), nil
	}

	destDoc, destSlug, err := address.ParseSectionRef(req.GetString("destination", ""), srcDoc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("destination: %v", err)), nil
	}

	position := sections.Position(strings.TrimSpace(req.GetString("position", "")))
	if position == "" {
		position = sections.PositionAfter
	}

	res, err := t.engine.Move(sections.MoveRequest{
		SourceDoc: srcDoc,
		SourceRef: srcSlug,
		DestDoc:   destDoc,
		DestRef:   destSlug,
		Position:  position,
	})
	if err != nil {
		// Partial-failure errors carry their own recovery guidance; both
		// documents may have changed, so refresh them before reporting.
		switch err.(type) {
		case *sections.MoveDuplicatedError, *sections.MoveDataLossError:
			refreshIndex(t.store, t.index, srcDoc, destDoc)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	if srcDoc == destDoc {
		refreshIndex(t.store, t.index, srcDoc)
	} else {
		refreshIndex(t.store, t.index, srcDoc, destDoc)
	}

	var sb strings.Builder
	sb.WriteString("## Section Moved\n\n")
	fmt.Fprintf(&sb, "**Section:** %s\n", res.Section)
	fmt.Fprintf(&sb, "**From:** %s\n", res.From)
	fmt.Fprintf(&sb, "**To:** %s\n", res.To)
	fmt.Fprintf(&sb, "**Position:** %s %q\n", position, destSlug)
	if res.Depth > 0 {
		fmt.Fprintf(&sb, "**Depth:** %d\n", res.Depth)
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	fmt.Fprintf(&sb, "- Verify the result with `view_section` (\"%s#%s\")\n", res.To, res.Section)
	fmt.Fprintf(&sb, "- Check the source outline with `view_document` (document: %q)\n", res.From)

	return mcp.NewToolResultText(sb.String()), nil
}
