// Package tools implements the MCP tool handlers for the document corpus.
//
// Each tool is a struct that receives its collaborators via constructor
// (DIP) and exposes Definition() for registration plus Handle() for calls.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on interfaces (Store, Indexer, templates.Renderer), not concretions
// - Caller mistakes come back as tool errors with enough context to self-correct
package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/document"
	"github.com/docweave/docweave/internal/search"
)

// Store is the slice of the document manager the tools need.
// Implemented by document.Manager.
type Store interface {
	GetDocument(path string) (*document.Snapshot, error)
	ListDocuments() ([]string, error)
	CreateDocument(path, content string) error
	DeleteDocument(path string) error
	RenameDocument(oldPath, newPath string) error
	ArchiveDocument(path string) (string, error)
	InvalidateDocument(path string)
}

// Indexer keeps the search index current after mutations.
// Implemented by search.Index.
type Indexer interface {
	IndexDocument(snap *document.Snapshot) error
	RemoveDocument(path string) error
}

// Searcher runs full-text queries against the index.
// Implemented by search.Index.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// refreshIndex re-reads each document and replaces its index rows. A path
// that no longer resolves is dropped from the index instead. The mutation
// itself has already succeeded at this point; a stale index row is repaired
// by the next full reindex, so failures here are not surfaced to the caller.
func refreshIndex(store Store, ix Indexer, paths ...string) {
	for _, p := range paths {
		store.InvalidateDocument(p)
		snap, err := store.GetDocument(p)
		if err != nil {
			_ = ix.RemoveDocument(p)
			continue
		}
		_ = ix.IndexDocument(snap)
	}
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitCSV splits a comma-separated argument into trimmed, non-empty parts.
func splitCSV(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
