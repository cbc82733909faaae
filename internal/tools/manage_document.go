package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
)

// ManageDocumentTool handles the manage_document MCP tool.
// One dispatch tool for whole-document lifecycle: delete, rename, archive.
type ManageDocumentTool struct {
	store Store
	index Indexer
}

// NewManageDocumentTool creates a ManageDocumentTool.
func NewManageDocumentTool(store Store, index Indexer) *ManageDocumentTool {
	return &ManageDocumentTool{store: store, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *ManageDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_document",
		mcp.WithDescription(
			"Whole-document lifecycle operations. "+
				"Actions: delete (remove from disk), rename (move to a new path, "+
				"creating directories as needed), archive (move under /archive, "+
				"preserving the directory structure). "+
				"The search index follows every action.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of: delete, rename, archive"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Document path, e.g. \"/api/authentication.md\""),
		),
		mcp.WithString("new_path",
			mcp.Description("Destination path (rename only); must not already exist"),
		),
	)
}

// Handle processes the manage_document tool call.
func (t *ManageDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := address.ParseDocument(req.GetString("document", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	switch action {
	case "delete":
		return t.handleDelete(doc.Path)
	case "rename":
		return t.handleRename(doc.Path, req.GetString("new_path", ""))
	case "archive":
		return t.handleArchive(doc.Path)
	}
	return mcp.NewToolResultError(fmt.Sprintf(
		"invalid action %q (valid: delete, rename, archive)", action,
	)), nil
}

func (t *ManageDocumentTool) handleDelete(docPath string) (*mcp.CallToolResult, error) {
	if err := t.store.DeleteDocument(docPath); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.store.InvalidateDocument(docPath)
	_ = t.index.RemoveDocument(docPath)

	var sb strings.Builder
	sb.WriteString("## Document Deleted\n\n")
	fmt.Fprintf(&sb, "**Path:** %s\n", docPath)
	sb.WriteString("\nThe file is removed from disk and the search index. This cannot be undone;\n")
	sb.WriteString("prefer `archive` when the content might still be needed.\n")

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *ManageDocumentTool) handleRename(docPath, rawNew string) (*mcp.CallToolResult, error) {
	newDoc, err := address.ParseDocument(rawNew)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("new_path: %v", err)), nil
	}
	if newDoc.Path == docPath {
		return mcp.NewToolResultError("'new_path' is the same as the current path"), nil
	}

	if err := t.store.RenameDocument(docPath, newDoc.Path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_ = t.index.RemoveDocument(docPath)
	refreshIndex(t.store, t.index, newDoc.Path)

	var sb strings.Builder
	sb.WriteString("## Document Renamed\n\n")
	fmt.Fprintf(&sb, "**From:** %s\n", docPath)
	fmt.Fprintf(&sb, "**To:** %s\n", newDoc.Path)
	sb.WriteString("\nLinks in other documents still point at the old path.\n")
	sb.WriteString("\n### Suggested Next Steps\n\n")
	fmt.Fprintf(&sb, "- Find stale references with `search_documents` (query: %q, search_in: \"content\")\n", docPath)

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *ManageDocumentTool) handleArchive(docPath string) (*mcp.CallToolResult, error) {
	newPath, err := t.store.ArchiveDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_ = t.index.RemoveDocument(docPath)
	refreshIndex(t.store, t.index, newPath)

	var sb strings.Builder
	sb.WriteString("## Document Archived\n\n")
	fmt.Fprintf(&sb, "**From:** %s\n", docPath)
	fmt.Fprintf(&sb, "**To:** %s\n", newPath)
	sb.WriteString("\nThe document stays searchable under its archive path. ")
	sb.WriteString("Restore it with `manage_document` (action: \"rename\").\n")

	return mcp.NewToolResultText(sb.String()), nil
}
