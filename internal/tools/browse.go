package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
)

// BrowseTool handles the browse_documents MCP tool.
// It lists the corpus grouped by namespace with per-document metadata.
type BrowseTool struct {
	store Store
}

// NewBrowseTool creates a BrowseTool.
func NewBrowseTool(store Store) *BrowseTool {
	return &BrowseTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *BrowseTool) Definition() mcp.Tool {
	return mcp.NewTool("browse_documents",
		mcp.WithDescription(
			"List the documents in the corpus, grouped by namespace (directory), "+
				"with title, task progress, and completion metadata. "+
				"Use this to orient yourself before viewing or editing.",
		),
		mcp.WithString("namespace",
			mcp.Description("Only list one namespace, e.g. \"api\" (\"root\" selects top-level documents)"),
		),
	)
}

// Handle processes the browse_documents tool call.
func (t *BrowseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths, err := t.store.ListDocuments()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText(
			"The corpus is empty. Create a first document with `create_document`.",
		), nil
	}

	filter := strings.TrimSpace(req.GetString("namespace", ""))

	grouped := map[string][]string{}
	var namespaces []string
	for _, p := range paths {
		ns := address.NamespaceOf(p)
		if _, ok := grouped[ns]; !ok {
			namespaces = append(namespaces, ns)
		}
		grouped[ns] = append(grouped[ns], p)
	}
	sort.Strings(namespaces)

	if filter != "" {
		if _, ok := grouped[filter]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"no documents in namespace %q (available: %s)",
				filter, strings.Join(namespaces, ", "),
			)), nil
		}
		namespaces = []string{filter}
	}

	var sb strings.Builder
	sb.WriteString("## Document Corpus\n\n")
	if filter != "" {
		fmt.Fprintf(&sb, "**Namespace:** %s\n", filter)
		fmt.Fprintf(&sb, "**Documents:** %d\n", len(grouped[filter]))
	} else {
		fmt.Fprintf(&sb, "**Documents:** %d\n", len(paths))
		fmt.Fprintf(&sb, "**Namespaces:** %d\n", len(grouped))
	}

	for _, ns := range namespaces {
		fmt.Fprintf(&sb, "\n### %s\n\n", ns)
		for _, p := range grouped[ns] {
			sb.WriteString(t.describe(p))
		}
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	sb.WriteString("- Open a document with `view_document`\n")
	sb.WriteString("- Find content across documents with `search_documents`\n")

	return mcp.NewToolResultText(sb.String()), nil
}

// describe renders one corpus entry. An unreadable document keeps its path
// in the listing so the caller still sees it exists.
func (t *BrowseTool) describe(path string) string {
	snap, err := t.store.GetDocument(path)
	if err != nil {
		return fmt.Sprintf("- **%s** (unreadable: %v)\n", path, err)
	}
	meta := document.Meta(snap)

	var extras []string
	if meta.Tasks.Total > 0 {
		extras = append(extras, fmt.Sprintf("tasks: %d/%d", meta.Tasks.Completed, meta.Tasks.Total))
	}
	if meta.Completion != nil {
		extras = append(extras, fmt.Sprintf("completion: %d%%", *meta.Completion))
	}

	line := fmt.Sprintf("- **%s** %s", meta.Path, meta.Title)
	if len(extras) > 0 {
		line += " (" + strings.Join(extras, ", ") + ")"
	}
	return line + "\n"
}
