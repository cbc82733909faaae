// Package document is the storage layer of the corpus: it reads, parses,
// caches, and atomically writes markdown documents under a single docs
// root. Parsing produces an immutable Snapshot — raw content, frontmatter,
// and the heading index — which the mutation engine and analyzers consume.
// The manager owns the snapshot cache; callers invalidate by document path
// after mutations (DIP: collaborators receive the manager, never a global).
package document

import (
	"path"
	"strings"
	"time"

	"github.com/docweave/docweave/internal/address"
)

// Snapshot is one parsed document at a point in time. Lines is Raw split on
// newlines; mutations splice Lines and join them back, which reproduces Raw
// byte-for-byte, so frontmatter and untouched sections are never disturbed.
type Snapshot struct {
	Address  address.Document
	Raw      string
	Lines    []string
	BodyLine int
	Front    FrontMatter
	Index    *address.Index
	ModTime  time.Time
}

// NewSnapshot parses raw content into a snapshot. docPath must be a
// canonical document path ("/dir/name.md").
func NewSnapshot(docPath, raw string, modTime time.Time) *Snapshot {
	lines := strings.Split(raw, "\n")
	front, bodyLine := parseFrontMatter(lines)
	body := strings.Join(lines[bodyLine:], "\n")

	return &Snapshot{
		Address:  address.Document{Path: docPath, Namespace: address.NamespaceOf(docPath)},
		Raw:      raw,
		Lines:    lines,
		BodyLine: bodyLine,
		Front:    front,
		Index:    parseHeadings(docPath, body, bodyLine),
		ModTime:  modTime,
	}
}

// Body returns the document content after the frontmatter block.
func (s *Snapshot) Body() string {
	return strings.Join(s.Lines[s.BodyLine:], "\n")
}

// SectionSpan returns the zero-based line range [start, end) of the full
// section at h: the heading line through the line before the next heading
// of equal or lesser depth.
func (s *Snapshot) SectionSpan(h address.Heading) (start, end int) {
	start = h.Line
	end = len(s.Lines)
	if _, hEnd := s.Index.SectionExtent(h); hEnd < len(s.Index.Headings) {
		end = s.Index.Headings[hEnd].Line
	}
	return start, end
}

// BodySpan returns the line range [start, end) of the section body: the
// content between the heading marker and the end of the section's extent,
// subsection headings included.
func (s *Snapshot) BodySpan(h address.Heading) (start, end int) {
	_, end = s.SectionSpan(h)
	start = h.BodyLine
	if start > end {
		start = end
	}
	return start, end
}

// SectionContent returns the full section text at h, heading line included.
func (s *Snapshot) SectionContent(h address.Heading) string {
	start, end := s.SectionSpan(h)
	return strings.Join(s.Lines[start:end], "\n")
}

// SectionBody returns the section body text at h.
func (s *Snapshot) SectionBody(h address.Heading) string {
	start, end := s.BodySpan(h)
	return strings.Join(s.Lines[start:end], "\n")
}

// Title returns the display title: the frontmatter title, else the first
// top-level heading, else the filename stem.
func (s *Snapshot) Title() string {
	if t := s.Front.Title(); t != "" {
		return t
	}
	for _, h := range s.Index.Headings {
		if h.Depth == 1 {
			return h.Title
		}
	}
	base := path.Base(s.Address.Path)
	return strings.TrimSuffix(base, ".md")
}

// Metadata is the display metadata of a document, assembled from its
// frontmatter, filesystem state, and task sections.
type Metadata struct {
	Path         string     `json:"path"`
	Title        string     `json:"title"`
	Namespace    string     `json:"namespace"`
	LastModified time.Time  `json:"last_modified"`
	Completion   *int       `json:"completion,omitempty"`
	Tasks        TaskCounts `json:"tasks"`
}

// TaskCounts summarizes the task sections of a document.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Meta assembles the metadata view of a snapshot.
func Meta(s *Snapshot) Metadata {
	m := Metadata{
		Path:         s.Address.Path,
		Title:        s.Title(),
		Namespace:    s.Address.Namespace,
		LastModified: s.ModTime,
	}
	if pct, ok := s.Front.Completion(); ok {
		m.Completion = &pct
	}
	for _, t := range Tasks(s) {
		m.Tasks.Total++
		if t.Status == StatusCompleted {
			m.Tasks.Completed++
		}
	}
	return m
}
