// Package resources implements the read-only MCP resources exposed
// under the docs:// scheme.
//
// Resources provide data the host can consume for context. They use
// URI-based addressing following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
	"github.com/docweave/docweave/internal/search"
)

// Store is the document side resources read from.
type Store interface {
	ListDocuments() ([]string, error)
	GetDocument(docPath string) (*document.Snapshot, error)
}

// Index reports search index state.
type Index interface {
	Stats() (*search.Stats, error)
}

// Handler serves the corpus resources.
type Handler struct {
	store Store
	index Index
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store Store, index Index) *Handler {
	return &Handler{store: store, index: index}
}

type structureEntry struct {
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

// StructureResource returns the resource definition for the corpus tree.
func (h *Handler) StructureResource() mcp.Resource {
	return mcp.NewResource(
		"docs://corpus/structure",
		"Corpus Structure",
		mcp.WithResourceDescription("Every document grouped by namespace, with titles"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStructure returns the namespace → documents tree as JSON.
func (h *Handler) HandleStructure(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	paths, err := h.store.ListDocuments()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	tree := make(map[string][]structureEntry)
	for _, p := range paths {
		title := ""
		if snap, gerr := h.store.GetDocument(p); gerr == nil {
			title = snap.Title()
		}
		ns := address.NamespaceOf(p)
		tree[ns] = append(tree[ns], structureEntry{Path: p, Title: title})
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling corpus structure: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

type statusPayload struct {
	DocumentsOnDisk  int    `json:"documents_on_disk"`
	DocumentsIndexed int    `json:"documents_indexed"`
	SectionsIndexed  int    `json:"sections_indexed"`
	LastIndexed      string `json:"last_indexed,omitempty"`
}

// StatusResource returns the resource definition for corpus status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"docs://corpus/status",
		"Corpus Status",
		mcp.WithResourceDescription("Document counts and search index freshness"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns corpus counts and index freshness as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	paths, err := h.store.ListDocuments()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	stats, err := h.index.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	payload := statusPayload{
		DocumentsOnDisk:  len(paths),
		DocumentsIndexed: stats.Documents,
		SectionsIndexed:  stats.Sections,
		LastIndexed:      stats.LastIndexed,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling corpus status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
