package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
	"github.com/docweave/docweave/internal/sections"
)

// ManageTaskTool handles the manage_task MCP tool.
// One dispatch tool for task sections: list them, create one under the
// document's Tasks heading, edit a task's body or status, mark one done.
type ManageTaskTool struct {
	store  Store
	engine *sections.Engine
	index  Indexer
}

// NewManageTaskTool creates a ManageTaskTool.
func NewManageTaskTool(store Store, engine *sections.Engine, index Indexer) *ManageTaskTool {
	return &ManageTaskTool{store: store, engine: engine, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *ManageTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_task",
		mcp.WithDescription(
			"Work with the tasks of a document (sections directly under a Tasks heading). "+
				"Actions: list (all tasks with status), create (new task under the Tasks "+
				"heading, title required), edit (change status and/or body), "+
				"complete (shorthand for status=completed). "+
				"Task status lives in a \"Status: <value>\" line inside the task body.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of: list, create, edit, complete"),
		),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Document path, e.g. \"/api/authentication.md\""),
		),
		mcp.WithString("task",
			mcp.Description("Task slug (edit and complete)"),
		),
		mcp.WithString("title",
			mcp.Description("Title of the new task (create)"),
		),
		mcp.WithString("content",
			mcp.Description("Task body text. On create it is placed below the status line; on edit it replaces the body."),
		),
		mcp.WithString("status",
			mcp.Description("Task status: pending, in_progress, or completed (\"done\" and \"in progress\" are accepted)"),
		),
	)
}

// Handle processes the manage_task tool call.
func (t *ManageTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := address.ParseDocument(req.GetString("document", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	switch action {
	case "list":
		return t.handleList(doc.Path)
	case "create":
		return t.handleCreate(doc.Path, req)
	case "edit":
		return t.handleEdit(doc.Path, req)
	case "complete":
		return t.handleComplete(doc.Path, req)
	}
	return mcp.NewToolResultError(fmt.Sprintf(
		"invalid action %q (valid: list, create, edit, complete)", action,
	)), nil
}

func (t *ManageTaskTool) handleList(docPath string) (*mcp.CallToolResult, error) {
	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks := document.Tasks(snap)
	if len(tasks) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No tasks in %s. Add a \"## Tasks\" section with `edit_section`, "+
				"then create tasks with `manage_task` (action: \"create\").", docPath,
		)), nil
	}

	completed := 0
	for _, task := range tasks {
		if task.Status == document.StatusCompleted {
			completed++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Tasks in %s\n\n", docPath)
	fmt.Fprintf(&sb, "**Total:** %d\n", len(tasks))
	fmt.Fprintf(&sb, "**Completed:** %d\n\n", completed)

	for _, task := range tasks {
		box := " "
		if task.Status == document.StatusCompleted {
			box = "x"
		}
		fmt.Fprintf(&sb, "- [%s] `%s` %s (%s)\n", box, task.Slug, task.Title, task.Status)
	}

	sb.WriteString("\n### Suggested Next Steps\n\n")
	sb.WriteString("- Read one task with `view_task`\n")
	sb.WriteString("- Mark one done with `manage_task` (action: \"complete\")\n")

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *ManageTaskTool) handleCreate(docPath string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required for action \"create\""), nil
	}

	status := document.NormalizeStatus(req.GetString("status", "pending"))
	if err := document.ValidateStatus(status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasksRef := ""
	for _, h := range snap.Index.Headings {
		if address.IsTasksHeading(h) {
			tasksRef = h.Slug
			break
		}
	}
	if tasksRef == "" {
		return mcp.NewToolResultError(fmt.Sprintf(
			"document %s has no Tasks section; add one first with `edit_section` "+
				"(operation: \"append_child\" on the document's top section, title: \"Tasks\")", docPath,
		)), nil
	}

	body := document.StatusLine(status)
	if content := strings.Trim(req.GetString("content", ""), "\n"); strings.TrimSpace(content) != "" {
		body += "\n\n" + content
	}

	res, err := t.engine.Apply(sections.Request{
		Document: docPath,
		Ref:      tasksRef,
		Op:       sections.OpAppendChild,
		Title:    title,
		Content:  body,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refreshIndex(t.store, t.index, docPath)

	var sb strings.Builder
	sb.WriteString("## Task Created\n\n")
	fmt.Fprintf(&sb, "**Document:** %s\n", docPath)
	fmt.Fprintf(&sb, "**Task:** %s\n", res.Section)
	fmt.Fprintf(&sb, "**Title:** %s\n", title)
	fmt.Fprintf(&sb, "**Status:** %s\n", status)
	sb.WriteString(t.progress(docPath))

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *ManageTaskTool) handleEdit(docPath string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := strings.TrimSpace(req.GetString("task", ""))
	if slug == "" {
		return mcp.NewToolResultError("'task' is required for action \"edit\""), nil
	}

	rawStatus := strings.TrimSpace(req.GetString("status", ""))
	content := req.GetString("content", "")
	if rawStatus == "" && strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("nothing to change: pass 'status' and/or 'content'"), nil
	}

	var status document.Status
	if rawStatus != "" {
		status = document.NormalizeStatus(rawStatus)
		if err := document.ValidateStatus(status); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, h, err := address.ResolveTask(snap.Index, snap.Address, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := snap.SectionBody(h)
	if strings.TrimSpace(content) != "" {
		body = strings.Trim(content, "\n")
	}
	if rawStatus != "" {
		body = document.SetStatus(body, status)
	}

	if _, err := t.engine.Apply(sections.Request{
		Document: docPath,
		Ref:      h.Slug,
		Op:       sections.OpReplace,
		Content:  body,
	}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refreshIndex(t.store, t.index, docPath)

	var sb strings.Builder
	sb.WriteString("## Task Updated\n\n")
	fmt.Fprintf(&sb, "**Document:** %s\n", docPath)
	fmt.Fprintf(&sb, "**Task:** %s\n", h.Slug)
	if rawStatus != "" {
		fmt.Fprintf(&sb, "**Status:** %s\n", status)
	}
	sb.WriteString(t.progress(docPath))

	return mcp.NewToolResultText(sb.String()), nil
}

func (t *ManageTaskTool) handleComplete(docPath string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := strings.TrimSpace(req.GetString("task", ""))
	if slug == "" {
		return mcp.NewToolResultError("'task' is required for action \"complete\""), nil
	}

	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, h, err := address.ResolveTask(snap.Index, snap.Address, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := document.SetStatus(snap.SectionBody(h), document.StatusCompleted)
	if _, err := t.engine.Apply(sections.Request{
		Document: docPath,
		Ref:      h.Slug,
		Op:       sections.OpReplace,
		Content:  body,
	}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refreshIndex(t.store, t.index, docPath)

	var sb strings.Builder
	sb.WriteString("## Task Completed\n\n")
	fmt.Fprintf(&sb, "**Document:** %s\n", docPath)
	fmt.Fprintf(&sb, "**Task:** %s\n", h.Slug)
	fmt.Fprintf(&sb, "**Status:** %s\n", document.StatusCompleted)
	sb.WriteString(t.progress(docPath))

	return mcp.NewToolResultText(sb.String()), nil
}

// progress renders the document's task tally after a mutation.
func (t *ManageTaskTool) progress(docPath string) string {
	snap, err := t.store.GetDocument(docPath)
	if err != nil {
		return ""
	}
	meta := document.Meta(snap)
	if meta.Tasks.Total == 0 {
		return ""
	}
	return fmt.Sprintf("**Progress:** %d/%d tasks completed\n", meta.Tasks.Completed, meta.Tasks.Total)
}
