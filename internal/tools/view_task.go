package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
)

// ViewTaskTool handles the view_task MCP tool.
// It resolves a section as a task (an immediate child of a Tasks heading)
// and shows its status and body.
type ViewTaskTool struct {
	store Store
}

// NewViewTaskTool creates a ViewTaskTool.
func NewViewTaskTool(store Store) *ViewTaskTool {
	return &ViewTaskTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("view_task",
		mcp.WithDescription(
			"Read a single task: a section that sits directly under a Tasks heading. "+
				"Shows the parsed status (pending, in_progress, completed) and the task body. "+
				"List all tasks of a document with manage_task (action: \"list\").",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task reference: \"/doc.md#slug\" or a bare slug with document set"),
		),
		mcp.WithString("document",
			mcp.Description("Context document path for a bare slug"),
		),
	)
}

// Handle processes the view_task tool call.
func (t *ViewTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath, slug, err := address.ParseSectionRef(
		req.GetString("task", ""),
		req.GetString("document", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, h, err := address.ResolveTask(snap.Index, snap.Address, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := document.StatusPending
	for _, task := range document.Tasks(snap) {
		if task.Slug == h.Slug {
			status = task.Status
			break
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Task: %s\n\n", h.Title)
	fmt.Fprintf(&sb, "**Document:** %s\n", docPath)
	fmt.Fprintf(&sb, "**Section:** %s\n", h.Slug)
	fmt.Fprintf(&sb, "**Status:** %s\n", status)

	body := strings.TrimSpace(snap.SectionBody(h))
	if body != "" {
		sb.WriteString("\n### Content\n\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	fmt.Fprintf(&sb, "- Mark it done with `manage_task` (action: \"complete\", task: %q)\n", h.Slug)
	sb.WriteString("- Update status or body with `manage_task` (action: \"edit\")\n")

	return mcp.NewToolResultText(sb.String()), nil
}
