package document

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/docweave/docweave/internal/address"
)

var markdown = goldmark.New()

// parseHeadings extracts the heading index from body markdown. Only
// top-level headings are addressable; a heading buried in a blockquote or
// list is content, not structure. lineOffset shifts the computed lines into
// raw-document coordinates when the body follows a frontmatter block.
func parseHeadings(docPath, body string, lineOffset int) *address.Index {
	src := []byte(body)
	root := markdown.Parser().Parse(text.NewReader(src))

	lineStarts := []int{0}
	for i, b := range src {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	lineOf := func(off int) int {
		return sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > off }) - 1
	}

	ix := &address.Index{Path: docPath}
	taken := make(map[string]bool)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Lines().Len() == 0 {
			// A bare marker with no text cannot be addressed.
			continue
		}
		first := lineOf(h.Lines().At(0).Start)
		bodyLine := first + 1
		if !atxLine(src, lineStarts, first) {
			// Setext: the underline sits on the line after the last
			// text line.
			last := lineOf(h.Lines().At(h.Lines().Len() - 1).Stop - 1)
			bodyLine = last + 2
		}

		title := string(h.Text(src))
		slug := address.UniqueSlug(address.Slugify(title), taken)
		taken[slug] = true

		ix.Headings = append(ix.Headings, address.Heading{
			Slug:     slug,
			Title:    title,
			Depth:    h.Level,
			Index:    len(ix.Headings),
			Line:     first + lineOffset,
			BodyLine: bodyLine + lineOffset,
		})
	}
	return ix
}

// atxLine reports whether the given line begins with an ATX '#' marker.
func atxLine(src []byte, lineStarts []int, line int) bool {
	start := lineStarts[line]
	end := len(src)
	if line+1 < len(lineStarts) {
		end = lineStarts[line+1]
	}
	return strings.HasPrefix(strings.TrimLeft(string(src[start:end]), " "), "#")
}
