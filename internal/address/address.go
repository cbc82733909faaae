// Package address implements the canonical addressing scheme for the
// document corpus: typed, validated references to documents, sections, and
// tasks, plus the heading-index model those references are checked against.
//
// The resolver is pure — it validates raw strings against a supplied Index
// snapshot and never touches storage. Existence checks for source documents
// belong to the document manager.
//
// Address forms:
//   - Document:  "/api/authentication.md" (absolute, .md)
//   - Section:   "/api/authentication.md#jwt-setup" or a bare slug resolved
//     against a context document; slugs may be hierarchical ("api/jwt-setup")
//   - Task:      a section address constrained to live directly under a
//     "Tasks" heading
package address

import (
	"path"
	"strings"
)

// Document is a validated reference to one markdown document.
type Document struct {
	Path      string
	Namespace string
}

// String returns the canonical form — the absolute document path.
func (d Document) String() string { return d.Path }

// CacheKey returns the invalidation key for this document. Section and task
// addresses share the key of their document so the cache layer invalidates
// exactly the affected document.
func (d Document) CacheKey() string { return "doc:" + d.Path }

// Section is a validated reference to a heading within a document. Slug is
// the canonical flat slug of the resolved heading; Depth its depth at
// resolution time.
type Section struct {
	Document Document
	Slug     string
	Depth    int
}

// String returns the canonical form "path#slug".
func (s Section) String() string { return s.Document.Path + "#" + s.Slug }

// CacheKey returns the owning document's cache key.
func (s Section) CacheKey() string { return s.Document.CacheKey() }

// Task is a Section that satisfies the task constraints: an immediate child
// of the nearest "Tasks" heading.
type Task struct {
	Section
}

// NormalizeDocPath applies the destination-path normalization rules:
// a "/" prefix when absent and a ".md" suffix when absent. It does not
// check existence — source references are normalized the same way and then
// existence-checked by the document manager.
func NormalizeDocPath(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, ".md") {
		p += ".md"
	}
	return path.Clean(p)
}

// ParseDocument validates and normalizes a raw document reference.
func ParseDocument(raw string) (Document, error) {
	p := NormalizeDocPath(raw)
	if p == "" {
		return Document{}, newError(CodeMissingDocument, "document path is empty")
	}
	if strings.Contains(p, "..") {
		return Document{}, newError(CodeInvalidPath, "document path must not contain '..'", "document", raw)
	}
	if strings.Contains(p, "#") {
		return Document{}, newError(CodeInvalidPath, "document path must not contain '#' — use a section reference", "document", raw)
	}
	return Document{Path: p, Namespace: NamespaceOf(p)}, nil
}

// NamespaceOf derives the namespace classification from a document path:
// the directory portion without the leading slash, or "root" for top-level
// documents. "/api/specs/auth.md" → "api/specs".
func NamespaceOf(docPath string) string {
	dir := path.Dir(docPath)
	dir = strings.TrimPrefix(dir, "/")
	if dir == "" || dir == "." {
		return "root"
	}
	return dir
}

// ParseSectionRef splits a raw section reference into its document path and
// slug parts, applying the precedence rules:
//
//   - "<docPath>#<slug>" — the embedded path wins over defaultDoc
//   - a bare slug (no '#', no leading '/') — resolved against defaultDoc
//   - "#<slug>" — MISSING_DOCUMENT_PATH (empty left side is an error)
//   - "<docPath>#" — MISSING_SLUG (empty right side is an error)
//   - "/doc/path.md" with no '#' — MISSING_SLUG (a path is not a slug)
//
// The returned document path is normalized; the slug is untouched (it may
// be hierarchical and is validated separately by ResolveSection).
func ParseSectionRef(raw, defaultDoc string) (docPath, slug string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", newError(CodeMissingSlug, "section reference is empty")
	}

	if i := strings.Index(raw, "#"); i >= 0 {
		left, right := raw[:i], raw[i+1:]
		if left == "" {
			return "", "", newError(CodeMissingDocument,
				"section reference has no document path before '#'", "slug", right)
		}
		if right == "" {
			return "", "", newError(CodeMissingSlug,
				"section reference has no slug after '#'", "document", left)
		}
		doc, derr := ParseDocument(left)
		if derr != nil {
			return "", "", derr
		}
		return doc.Path, right, nil
	}

	if strings.HasPrefix(raw, "/") {
		return "", "", newError(CodeMissingSlug,
			"reference looks like a document path — append '#<slug>' to address a section", "document", raw)
	}

	if defaultDoc == "" {
		return "", "", newError(CodeMissingDocument,
			"bare slug given with no context document", "slug", raw)
	}
	doc, derr := ParseDocument(defaultDoc)
	if derr != nil {
		return "", "", derr
	}
	return doc.Path, raw, nil
}

// ParseSectionRefs is the CSV-aware variant used by the view tools: the
// slug side may be a comma-separated list ("path#a,b,c"). Single-slug
// behaviour is identical to ParseSectionRef.
func ParseSectionRefs(raw, defaultDoc string) (docPath string, slugs []string, err error) {
	docPath, joined, err := ParseSectionRef(raw, defaultDoc)
	if err != nil {
		return "", nil, err
	}
	for _, s := range strings.Split(joined, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		slugs = append(slugs, s)
	}
	if len(slugs) == 0 {
		return "", nil, newError(CodeMissingSlug, "section reference has no slugs", "document", docPath)
	}
	return docPath, slugs, nil
}
