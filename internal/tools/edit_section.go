package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/sections"
)

// EditSectionTool handles the edit_section MCP tool.
// Dual behavior:
//   - Without operations: applies one mutation described by the flat
//     section/operation/content/title parameters
//   - With operations (JSON array string): applies up to
//     sections.MaxBatchOperations mutations sequentially, each succeeding or
//     failing on its own
type EditSectionTool struct {
	store  Store
	engine *sections.Engine
	index  Indexer
}

// NewEditSectionTool creates an EditSectionTool.
func NewEditSectionTool(store Store, engine *sections.Engine, index Indexer) *EditSectionTool {
	return &EditSectionTool{store: store, engine: engine, index: index}
}

// batchItem is one entry of the operations JSON array.
type batchItem struct {
	Document  string `json:"document,omitempty"`
	Section   string `json:"section"`
	Operation string `json:"operation"`
	Content   string `json:"content,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Definition returns the MCP tool definition for registration.
func (t *EditSectionTool) Definition() mcp.Tool {
	return mcp.NewTool("edit_section",
		mcp.WithDescription(
			"Edit a document one section at a time. "+
				"Operations: replace, append, prepend (body edits), "+
				"insert_before, insert_after, append_child (create a new section, title required), "+
				"remove (delete the section and its subtree). "+
				"Dual behavior: pass section/operation for a single edit, "+
				"or operations (JSON array) to batch up to "+
				fmt.Sprintf("%d", sections.MaxBatchOperations)+" edits in one call. "+
				"Frontmatter and untouched sections are preserved byte-for-byte.",
		),
		mcp.WithString("document",
			mcp.Description("Context document path for bare section slugs"),
		),
		mcp.WithString("section",
			mcp.Description("Section reference: \"/doc.md#slug\" or a bare slug with document set"),
		),
		mcp.WithString("operation",
			mcp.Description("One of: replace, append, prepend, insert_before, insert_after, append_child, remove"),
		),
		mcp.WithString("content",
			mcp.Description("Markdown body text (required for every operation except remove)"),
		),
		mcp.WithString("title",
			mcp.Description("Title of the new section (required for insert_before, insert_after, append_child)"),
		),
		mcp.WithString("operations",
			mcp.Description(
				"JSON array of edits, e.g. "+
					`"[{\"section\": \"setup\", \"operation\": \"append\", \"content\": \"...\"}]". `+
					"Each entry takes the same fields as a single edit; entries may override "+
					"the document. When set, the flat parameters are ignored.",
			),
		),
	)
}

// Handle processes the edit_section tool call.
func (t *EditSectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defaultDoc := req.GetString("document", "")

	if raw := req.GetString("operations", ""); raw != "" {
		return t.handleBatch(raw, defaultDoc)
	}
	return t.handleSingle(req, defaultDoc)
}

// handleSingle applies one mutation from the flat parameters.
func (t *EditSectionTool) handleSingle(req mcp.CallToolRequest, defaultDoc string) (*mcp.CallToolResult, error) {
	ref := req.GetString("section", "")
	if strings.TrimSpace(ref) == "" {
		return mcp.NewToolResultError("'section' is required (or pass 'operations' for a batch)"), nil
	}

	docPath, slug, err := address.ParseSectionRef(ref, defaultDoc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.engine.Apply(sections.Request{
		Document: docPath,
		Ref:      slug,
		Op:       sections.Op(strings.TrimSpace(req.GetString("operation", ""))),
		Content:  req.GetString("content", ""),
		Title:    req.GetString("title", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refreshIndex(t.store, t.index, docPath)

	var sb strings.Builder
	switch res.Action {
	case sections.ActionCreated:
		sb.WriteString("## Section Created\n\n")
	case sections.ActionRemoved:
		sb.WriteString("## Section Removed\n\n")
	default:
		sb.WriteString("## Section Edited\n\n")
	}
	fmt.Fprintf(&sb, "**Document:** %s\n", docPath)
	fmt.Fprintf(&sb, "**Section:** %s\n", res.Section)
	if res.Depth > 0 {
		fmt.Fprintf(&sb, "**Depth:** %d\n", res.Depth)
	}

	if res.Action == sections.ActionRemoved && strings.TrimSpace(res.RemovedContent) != "" {
		sb.WriteString("\n### Removed Content\n\n")
		sb.WriteString(strings.TrimRight(res.RemovedContent, "\n"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	if res.Action == sections.ActionRemoved {
		fmt.Fprintf(&sb, "- Check the remaining outline with `view_document` (document: %q)\n", docPath)
	} else {
		fmt.Fprintf(&sb, "- Verify the result with `view_section` (\"%s#%s\")\n", docPath, res.Section)
	}
	sb.WriteString("- Batch further edits in one call with the `operations` parameter\n")

	return mcp.NewToolResultText(sb.String()), nil
}

// handleBatch parses the operations array and applies it sequentially.
// A malformed reference aborts the whole batch before anything is applied;
// resolution and write failures are reported per item.
func (t *EditSectionTool) handleBatch(raw, defaultDoc string) (*mcp.CallToolResult, error) {
	var items []batchItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"'operations' must be a valid JSON array of edits, e.g. "+
				`[{"section": "setup", "operation": "append", "content": "..."}]. Parse error: %v`, err,
		)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultError("'operations' array is empty"), nil
	}

	reqs := make([]sections.Request, 0, len(items))
	for i, item := range items {
		doc := item.Document
		if doc == "" {
			doc = defaultDoc
		}
		docPath, slug, err := address.ParseSectionRef(item.Section, doc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("operation %d: %v", i+1, err)), nil
		}
		reqs = append(reqs, sections.Request{
			Document: docPath,
			Ref:      slug,
			Op:       sections.Op(strings.TrimSpace(item.Operation)),
			Content:  item.Content,
			Title:    item.Title,
		})
	}

	res, err := t.engine.ApplyBatch(reqs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	touched := map[string]bool{}
	for i, item := range res.Items {
		if item.Success && !touched[reqs[i].Document] {
			touched[reqs[i].Document] = true
			refreshIndex(t.store, t.index, reqs[i].Document)
		}
	}

	var sb strings.Builder
	sb.WriteString("## Batch Edit Complete\n\n")
	fmt.Fprintf(&sb, "**sections_modified:** %d\n", res.SectionsModified)
	fmt.Fprintf(&sb, "**total_operations:** %d\n", res.TotalOperations)

	sb.WriteString("\n### Results\n\n")
	for i, item := range res.Items {
		if item.Success {
			fmt.Fprintf(&sb, "%d. ✅ %s %q — %s\n", i+1, item.Op, item.Ref, item.Result.Action)
		} else {
			fmt.Fprintf(&sb, "%d. ❌ %s %q — %s\n", i+1, item.Op, item.Ref, item.Error)
		}
	}

	if res.SectionsModified < res.TotalOperations {
		sb.WriteString("\nFailed operations were skipped; the others are already applied. " +
			"Fix the failed ones and re-run just those.\n")
	}

	return mcp.NewToolResultText(sb.String()), nil
}
