package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/relations"
)

// ViewRelationshipsTool handles the view_relationships MCP tool.
// It renders the analyzer's full relationship picture for one document:
// forward links, backward references, similar content, and the synthesized
// dependency chain.
type ViewRelationshipsTool struct {
	analyzer *relations.Analyzer
}

// NewViewRelationshipsTool creates a ViewRelationshipsTool.
func NewViewRelationshipsTool(analyzer *relations.Analyzer) *ViewRelationshipsTool {
	return &ViewRelationshipsTool{analyzer: analyzer}
}

// Definition returns the MCP tool definition for registration.
func (t *ViewRelationshipsTool) Definition() mcp.Tool {
	return mcp.NewTool("view_relationships",
		mcp.WithDescription(
			"Show how a document connects to the rest of the corpus: documents it "+
				"links to, documents that reference it, documents with similar content, "+
				"and a suggested reading/implementation order. "+
				"Use this before editing to understand what an edit might affect.",
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Document path, e.g. \"/api/authentication.md\""),
		),
	)
}

// Handle processes the view_relationships tool call.
func (t *ViewRelationshipsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := address.ParseDocument(req.GetString("document", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis := t.analyzer.Analyze(ctx, doc.Path)
	if analysis == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"document %q could not be loaded for analysis", doc.Path,
		)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Relationships of %s\n", analysis.Source)

	writeRelated(&sb, "Forward Links", analysis.Forward)
	writeRelated(&sb, "Backward Links", analysis.Backward)
	writeRelated(&sb, "Similar Content", analysis.Similar)

	sb.WriteString("\n### Dependency Chain\n\n")
	if len(analysis.Dependencies) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, node := range analysis.Dependencies {
		fmt.Fprintf(&sb, "%d. **%s** %s (%s)\n", node.Sequence, node.Path, node.Title, node.Status)
		if len(node.DependsOn) > 0 {
			fmt.Fprintf(&sb, "   depends on: %s\n", strings.Join(node.DependsOn, ", "))
		}
		if len(node.Blocks) > 0 {
			fmt.Fprintf(&sb, "   blocks: %s\n", strings.Join(node.Blocks, ", "))
		}
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	sb.WriteString("- Open a related document with `view_document`\n")
	sb.WriteString("- After renames or removals, re-check backward links for stale references\n")

	return mcp.NewToolResultText(sb.String()), nil
}

// writeRelated renders one group of related documents.
func writeRelated(sb *strings.Builder, header string, docs []relations.RelatedDocument) {
	fmt.Fprintf(sb, "\n### %s (%d)\n\n", header, len(docs))
	if len(docs) == 0 {
		sb.WriteString("_none_\n")
		return
	}
	for _, d := range docs {
		fmt.Fprintf(sb, "- **%s** %s (%s) · %s\n", d.Path, d.Title, d.Namespace, d.Relationship)
		if d.Relevance > 0 {
			fmt.Fprintf(sb, "  relevance: %.2f\n", d.Relevance)
		}
		if len(d.SectionsLinked) > 0 {
			fmt.Fprintf(sb, "  sections linked: %s\n", strings.Join(d.SectionsLinked, ", "))
		}
		if len(d.SectionsLinking) > 0 {
			fmt.Fprintf(sb, "  sections linking: %s\n", strings.Join(d.SectionsLinking, ", "))
		}
		if len(d.SharedConcepts) > 0 {
			fmt.Fprintf(sb, "  shared concepts: %s\n", strings.Join(d.SharedConcepts, ", "))
		}
	}
}
