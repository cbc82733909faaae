// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/document"
	"github.com/docweave/docweave/internal/prompts"
	"github.com/docweave/docweave/internal/relations"
	"github.com/docweave/docweave/internal/resources"
	"github.com/docweave/docweave/internal/search"
	"github.com/docweave/docweave/internal/sections"
	"github.com/docweave/docweave/internal/templates"
	"github.com/docweave/docweave/internal/tools"
	"github.com/docweave/docweave/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function stops the file watcher and closes the
// search index database, and must be called on shutdown (typically via
// defer). It is always non-nil and safe to call even if startup failed
// partway through.
func New(cfg config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	// --- Create shared dependencies ---

	store, err := document.NewManager(cfg.DocsDir, logger, document.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return nil, noop, fmt.Errorf("opening docs root: %w", err)
	}

	index, err := search.New(cfg.IndexPath())
	if err != nil {
		return nil, noop, fmt.Errorf("opening search index: %w", err)
	}
	cleanup := func() {
		if err := index.Close(); err != nil {
			logger.Warn("closing search index", "error", err)
		}
	}

	// Rebuild the index from the corpus on disk so external edits made
	// while the server was down are picked up before the first query.
	if n, err := index.Reindex(context.Background(), store); err != nil {
		logger.Warn("startup reindex failed", "error", err)
	} else {
		logger.Info("corpus indexed", "documents", n)
	}

	engine := sections.NewEngine(store)
	analyzer := relations.NewAnalyzer(store, index, logger, relations.WithMaxDepth(cfg.MaxDepth))

	renderer, err := templates.NewRenderer()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"docweave",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register reading tools ---

	createTool := tools.NewCreateDocumentTool(store, renderer, index)
	s.AddTool(createTool.Definition(), createTool.Handle)

	browseTool := tools.NewBrowseTool(store)
	s.AddTool(browseTool.Definition(), browseTool.Handle)

	viewDocTool := tools.NewViewDocumentTool(store)
	s.AddTool(viewDocTool.Definition(), viewDocTool.Handle)

	viewSectionTool := tools.NewViewSectionTool(store)
	s.AddTool(viewSectionTool.Definition(), viewSectionTool.Handle)

	viewTaskTool := tools.NewViewTaskTool(store)
	s.AddTool(viewTaskTool.Definition(), viewTaskTool.Handle)

	// --- Register editing tools ---

	editTool := tools.NewEditSectionTool(store, engine, index)
	s.AddTool(editTool.Definition(), editTool.Handle)

	moveTool := tools.NewMoveSectionTool(store, engine, index)
	s.AddTool(moveTool.Definition(), moveTool.Handle)

	manageDocTool := tools.NewManageDocumentTool(store, index)
	s.AddTool(manageDocTool.Definition(), manageDocTool.Handle)

	manageTaskTool := tools.NewManageTaskTool(store, engine, index)
	s.AddTool(manageTaskTool.Definition(), manageTaskTool.Handle)

	// --- Register discovery tools ---

	searchTool := tools.NewSearchTool(index)
	searchTool.SetDefaultLimit(cfg.SearchLimit)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	relationshipsTool := tools.NewViewRelationshipsTool(analyzer)
	s.AddTool(relationshipsTool.Definition(), relationshipsTool.Handle)

	// --- Register prompts ---

	explorePrompt := prompts.NewExplorePrompt()
	s.AddPrompt(explorePrompt.Definition(), explorePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store, index)
	s.AddResource(resourceHandler.StructureResource(), resourceHandler.HandleStructure)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	// --- Start the file watcher ---
	//
	// The watcher is an independent subsystem: if it fails to start,
	// every tool keeps working and external edits are picked up on the
	// next startup reindex instead. We log a warning and continue.

	if cfg.Watch {
		w, werr := watcher.New(store.Root(), store, index, logger)
		if werr == nil {
			werr = w.Start(context.Background())
		}
		if werr != nil {
			logger.Warn("file watching disabled", "error", werr)
		} else {
			closeIndex := cleanup
			cleanup = func() {
				w.Stop()
				closeIndex()
			}
		}
	}

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default before any
// resource that needs closing has been created.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to work with the document corpus effectively.
func serverInstructions() string {
	return `You have access to docweave, an MCP server for working with a corpus of
structured markdown documents — specs, guides, designs, notes — addressed
section by section.

## WHEN TO USE docweave

Reach for docweave whenever the user:
- Asks what the project documentation says about something
- Wants to write or update a spec, guide, design doc, or notes
- Asks about the status of planned work or tasks
- References a document by name ("update the auth spec", "what does the
  onboarding guide cover?")

Prefer docweave tools over reading documentation files directly: the tools
return section-level views, keep the search index current, and protect the
document structure.

## ADDRESSING

Documents are addressed by root-relative paths: /api/authentication.md.
Leading "/" and the ".md" extension are added for you when missing.

Sections are addressed by heading slugs. A reference is "path#slug":

    /api/authentication.md#key-rotation

When several sections share a slug, disambiguate with the slash-joined
hierarchical form: "#setup/key-rotation". Tools that take both a document
argument and a reference let you pass a bare "#slug" or plain slug against
that document.

NEVER guess a slug. Slugs come from view_document outlines, search results,
and tool responses. If a reference fails, the error lists the available
slugs — use one of those.

## READING WORKFLOW

1. browse_documents — corpus overview grouped by namespace, with task and
   completion summaries per document
2. view_document — one document's outline: every section slug, nested
3. view_section — full content of one or more sections (comma-separated
   references), each with its subsections
4. view_task — one task with its status and body

Read before you edit. Fetch the target section first so your replacement
content preserves what should survive.

## EDITING WORKFLOW

edit_section applies one operation, or a batch via the "operations"
parameter (a JSON array, at most 10 operations):
- replace — swap a section's body (subsections included, so prefer leaf
  sections or re-supply the subtree)
- append / prepend — add content inside the section body
- insert_before / insert_after — new sibling section (requires title)
- append_child — new subsection (requires title)
- remove — delete the section and its subtree

In a batch, each operation is validated up front and applied in order;
a failed operation is reported and skipped while the rest proceed.

move_section relocates a section (and its subtree) before/after a
reference section or as its child — within a document or across documents.

manage_document handles whole-document lifecycle: delete, rename, archive.

Every mutation refreshes the search index automatically.

## TASKS

A document tracks work in a "## Tasks" section whose immediate child
sections are the tasks. Each task body starts with a status line:

    Status: pending | in_progress | completed

Use manage_task:
- list — all tasks in a document with their statuses
- create — add a task (title, optional content and status)
- edit — update a task's status and/or content
- complete — shorthand for setting status to completed

Update task statuses as work progresses — document completion percentages
and dependency chains are derived from them.

## DISCOVERY

search_documents — full-text search over titles and section content.
Useful parameters: namespace (restrict to a corpus area), fuzzy
(prefix matching), match_any (OR the words), search_in (title/content/path),
group_by_document. An empty query lists recently modified documents.

view_relationships — how one document connects to the rest: forward links,
backward links, similar documents, and the dependency chain with statuses.
Call it before large edits to see what else an edit may affect.

## IMPORTANT RULES

- ALWAYS view a section before replacing it
- NEVER invent section slugs — take them from outlines and errors
- Batch related edits into one edit_section call instead of many
- Keep task statuses current; they drive completion reporting
- Write real content, never placeholders like "TBD"`
}
