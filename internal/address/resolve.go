package address

import (
	"fmt"
	"strings"
)

// ResolveSection resolves a (possibly hierarchical) slug against a heading
// index. Hierarchical slugs are slash-separated: every segment must name a
// real heading, and the earlier segments must appear, in order, within the
// actual ancestor chain of the final segment's heading. The chain may skip
// levels ("api/deep" matches api > auth > deep) but may not invent them.
func ResolveSection(ix *Index, doc Document, slug string) (Section, Heading, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Section{}, Heading{}, newError(CodeMissingSlug, "section slug is empty", "document", doc.Path)
	}

	segments := strings.Split(slug, "/")
	for _, seg := range segments {
		if seg == "" {
			return Section{}, Heading{}, newError(CodeMalformedSlug,
				"hierarchical slug has an empty segment", "document", doc.Path, "slug", slug)
		}
	}

	last := segments[len(segments)-1]
	target, ok := ix.Find(last)
	if !ok {
		return Section{}, Heading{}, newError(CodeSectionNotFound,
			fmt.Sprintf("section %q not found", last),
			"document", doc.Path, "slug", slug, "segment", last,
			"available", strings.Join(ix.Slugs(), ", "))
	}

	if len(segments) > 1 {
		ancestors := ix.Ancestors(target)
		ai := 0
		for _, seg := range segments[:len(segments)-1] {
			found := false
			for ai < len(ancestors) {
				if ancestors[ai].Slug == seg {
					found = true
					ai++
					break
				}
				ai++
			}
			if !found {
				avail := make([]string, 0, len(ancestors))
				for _, a := range ancestors {
					avail = append(avail, a.Slug)
				}
				return Section{}, Heading{}, newError(CodeSectionNotFound,
					fmt.Sprintf("segment %q is not an ancestor of %q", seg, last),
					"document", doc.Path, "slug", slug, "segment", seg,
					"available", strings.Join(avail, ", "))
			}
		}
	}

	return Section{Document: doc, Slug: target.Slug, Depth: target.Depth}, target, nil
}

// ResolveTask resolves a slug as a task: the heading must sit directly under
// the nearest preceding "Tasks" heading — exactly one level deeper, after
// it, with no heading at the Tasks depth or shallower in between.
func ResolveTask(ix *Index, doc Document, slug string) (Task, Heading, error) {
	sec, h, err := ResolveSection(ix, doc, slug)
	if err != nil {
		return Task{}, Heading{}, err
	}

	tasks, ok := tasksHeadingBefore(ix, h)
	if !ok {
		if _, exists := anyTasksHeading(ix); exists {
			return Task{}, Heading{}, newError(CodeNotATask,
				fmt.Sprintf("%q precedes the Tasks section", h.Slug),
				"document", doc.Path, "slug", slug)
		}
		return Task{}, Heading{}, newError(CodeTaskSectionMissing,
			"document has no Tasks section",
			"document", doc.Path, "slug", slug)
	}

	if h.Depth != tasks.Depth+1 {
		return Task{}, Heading{}, newError(CodeNotATask,
			fmt.Sprintf("%q is not an immediate child of the Tasks section", h.Slug),
			"document", doc.Path, "slug", slug)
	}
	for i := tasks.Index + 1; i < h.Index; i++ {
		if ix.Headings[i].Depth <= tasks.Depth {
			return Task{}, Heading{}, newError(CodeNotATask,
				fmt.Sprintf("%q lies outside the Tasks section", h.Slug),
				"document", doc.Path, "slug", slug)
		}
	}

	return Task{Section: sec}, h, nil
}

// tasksHeadingBefore finds the nearest heading before h whose slug is
// "tasks" (or whose title is "Tasks" in any case).
func tasksHeadingBefore(ix *Index, h Heading) (Heading, bool) {
	for i := h.Index - 1; i >= 0; i-- {
		if IsTasksHeading(ix.Headings[i]) {
			return ix.Headings[i], true
		}
	}
	return Heading{}, false
}

func anyTasksHeading(ix *Index) (Heading, bool) {
	for _, h := range ix.Headings {
		if IsTasksHeading(h) {
			return h, true
		}
	}
	return Heading{}, false
}

// IsTasksHeading reports whether h introduces a Tasks section.
func IsTasksHeading(h Heading) bool {
	return h.Slug == "tasks" || strings.EqualFold(h.Title, "tasks")
}
