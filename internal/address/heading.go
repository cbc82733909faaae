package address

import "strings"

// Heading is one entry in a document's heading index. Slugs are unique
// within a document (repeated titles get -2, -3, … suffixes at parse time).
// Line is the zero-based line of the heading marker in the raw content;
// BodyLine the first line after it (Line+1 for ATX headings, further down
// for setext headings whose underline spans an extra line).
type Heading struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Depth    int    `json:"depth"`
	Index    int    `json:"index"`
	Line     int    `json:"line"`
	BodyLine int    `json:"body_line"`
}

// Index is the ordered heading list of a single document — a structural
// snapshot recomputed from raw content on every read, never persisted.
// Parent/child relationships are derived from depth and ordering: a
// heading's parent is the nearest preceding heading with a smaller depth.
type Index struct {
	Path     string
	Headings []Heading
}

// Find returns the heading with the given slug, or false.
func (ix *Index) Find(slug string) (Heading, bool) {
	for _, h := range ix.Headings {
		if h.Slug == slug {
			return h, true
		}
	}
	return Heading{}, false
}

// Parent returns the nearest preceding heading with a smaller depth,
// or false for top-level headings.
func (ix *Index) Parent(h Heading) (Heading, bool) {
	for i := h.Index - 1; i >= 0; i-- {
		if ix.Headings[i].Depth < h.Depth {
			return ix.Headings[i], true
		}
	}
	return Heading{}, false
}

// Ancestors returns the ancestor chain of h from outermost to innermost,
// excluding h itself.
func (ix *Index) Ancestors(h Heading) []Heading {
	var chain []Heading
	cur := h
	for {
		parent, ok := ix.Parent(cur)
		if !ok {
			break
		}
		chain = append([]Heading{parent}, chain...)
		cur = parent
	}
	return chain
}

// HierarchicalSlug returns the full slash-joined ancestor path of h,
// e.g. "api/endpoints/authentication".
func (ix *Index) HierarchicalSlug(h Heading) string {
	chain := ix.Ancestors(h)
	parts := make([]string, 0, len(chain)+1)
	for _, a := range chain {
		parts = append(parts, a.Slug)
	}
	parts = append(parts, h.Slug)
	return strings.Join(parts, "/")
}

// Slugs returns all heading slugs in document order. Used to build the
// "available" context of resolution errors.
func (ix *Index) Slugs() []string {
	out := make([]string, len(ix.Headings))
	for i, h := range ix.Headings {
		out[i] = h.Slug
	}
	return out
}

// SectionExtent returns the half-open heading range [start, end) spanned by
// the section at h: h itself plus every deeper heading up to (not including)
// the next heading of depth ≤ h's. end is len(Headings) when the section
// runs to the end of the document.
func (ix *Index) SectionExtent(h Heading) (start, end int) {
	start = h.Index
	end = len(ix.Headings)
	for i := h.Index + 1; i < len(ix.Headings); i++ {
		if ix.Headings[i].Depth <= h.Depth {
			end = i
			break
		}
	}
	return start, end
}

// Children returns the immediate children of h: headings inside h's extent
// at exactly depth+1.
func (ix *Index) Children(h Heading) []Heading {
	start, end := ix.SectionExtent(h)
	var kids []Heading
	for i := start + 1; i < end; i++ {
		if ix.Headings[i].Depth == h.Depth+1 {
			kids = append(kids, ix.Headings[i])
		}
	}
	return kids
}
