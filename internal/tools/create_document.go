package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/templates"
)

// CreateDocumentTool handles the create_document MCP tool.
// It renders one of the embedded starter templates and writes it as a new
// document, then indexes the result.
type CreateDocumentTool struct {
	store    Store
	renderer templates.Renderer
	index    Indexer
}

// NewCreateDocumentTool creates a CreateDocumentTool.
func NewCreateDocumentTool(store Store, renderer templates.Renderer, index Indexer) *CreateDocumentTool {
	return &CreateDocumentTool{store: store, renderer: renderer, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("create_document",
		mcp.WithDescription(
			"Create a new markdown document in the corpus from a starter template. "+
				"Fails if the path already exists. "+
				"Use edit_section afterwards to add sections and content.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Document path, e.g. \"/api/authentication.md\". A leading '/' and '.md' extension are added when missing."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Document title, rendered as the top-level heading"),
		),
		mcp.WithString("template",
			mcp.Description("Starter template: blank (default), spec, or guide"),
		),
		mcp.WithString("description",
			mcp.Description("Short description rendered under the title"),
		),
	)
}

// Handle processes the create_document tool call.
func (t *CreateDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := address.ParseDocument(req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	kind := req.GetString("template", "")
	name, ok := templates.Lookup(kind)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown template %q (valid: %s)", kind, strings.Join(templates.Names(), ", "),
		)), nil
	}

	content, err := t.renderer.Render(name, templates.Data{
		Title:       title,
		Description: strings.TrimSpace(req.GetString("description", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering template: %v", err)), nil
	}

	if err := t.store.CreateDocument(doc.Path, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("creating document: %v", err)), nil
	}
	refreshIndex(t.store, t.index, doc.Path)

	var sb strings.Builder
	sb.WriteString("## Document Created\n\n")
	fmt.Fprintf(&sb, "**Path:** %s\n", doc.Path)
	fmt.Fprintf(&sb, "**Title:** %s\n", title)
	fmt.Fprintf(&sb, "**Namespace:** %s\n", doc.Namespace)
	if kind == "" {
		kind = "blank"
	}
	fmt.Fprintf(&sb, "**Template:** %s\n", strings.ToLower(kind))

	sb.WriteString("\n### Suggested Next Steps\n\n")
	fmt.Fprintf(&sb, "- Inspect the outline with `view_document` (document: %q)\n", doc.Path)
	sb.WriteString("- Fill in sections with `edit_section`\n")
	sb.WriteString("- Track work by adding a Tasks section, then `manage_task`\n")

	return mcp.NewToolResultText(sb.String()), nil
}
