package relations

import "github.com/docweave/docweave/internal/document"

const (
	bucketSpec = iota
	bucketGuide
	bucketImpl
)

// chainBucket partitions a related document for dependency synthesis.
func chainBucket(d RelatedDocument) int {
	switch {
	case nsIn(d.Namespace, "spec", "specs", "rfc", "rfcs"):
		return bucketSpec
	case d.Relationship == RelImplementationGuide || nsIn(d.Namespace, "guide", "guides", "docs", "documentation"):
		return bucketGuide
	default:
		return bucketImpl
	}
}

// dependencyChain orders related documents into specs, then guides, then
// implementations: specs block the guides, guides block the implementations
// and depend on the specs, implementations depend on both. Sequence numbers
// run across all three passes.
func (a *Analyzer) dependencyChain(related []RelatedDocument) []DependencyNode {
	if len(related) == 0 {
		return nil
	}

	var buckets [3][]RelatedDocument
	for _, d := range related {
		b := chainBucket(d)
		buckets[b] = append(buckets[b], d)
	}

	paths := func(ds []RelatedDocument) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Path)
		}
		return out
	}
	specPaths := paths(buckets[bucketSpec])
	guidePaths := paths(buckets[bucketGuide])
	implPaths := paths(buckets[bucketImpl])

	var chain []DependencyNode
	seq := 0
	emit := func(d RelatedDocument, blocks, dependsOn []string) {
		seq++
		chain = append(chain, DependencyNode{
			Sequence:  seq,
			Path:      d.Path,
			Title:     d.Title,
			Status:    a.statusOf(d.Path),
			Blocks:    blocks,
			DependsOn: dependsOn,
		})
	}

	for _, d := range buckets[bucketSpec] {
		emit(d, guidePaths, nil)
	}
	for _, d := range buckets[bucketGuide] {
		emit(d, implPaths, specPaths)
	}
	for _, d := range buckets[bucketImpl] {
		emit(d, nil, concat(specPaths, guidePaths))
	}
	return chain
}

// statusOf derives a document's status: an explicit completion percentage
// wins, then task progress, then pending.
func (a *Analyzer) statusOf(docPath string) document.Status {
	snap, err := a.store.GetDocument(docPath)
	if err != nil {
		return document.StatusPending
	}
	meta := document.Meta(snap)
	if meta.Completion != nil {
		switch {
		case *meta.Completion >= 100:
			return document.StatusCompleted
		case *meta.Completion > 0:
			return document.StatusInProgress
		default:
			return document.StatusPending
		}
	}
	if meta.Tasks.Total > 0 {
		switch {
		case meta.Tasks.Completed == meta.Tasks.Total:
			return document.StatusCompleted
		case meta.Tasks.Completed > 0:
			return document.StatusInProgress
		}
	}
	return document.StatusPending
}

func concat(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
