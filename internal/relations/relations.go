// Package relations analyzes how documents in the corpus relate to each
// other: explicit forward links, backward references found through the
// search index, and content similarity by shared keywords. The three
// traversals run concurrently and feed a synthesized dependency chain
// (specs before guides before implementations).
//
// The analyzer is deliberately lenient. A bad link or an unreadable
// candidate drops that one item, a failed sub-traversal yields an empty
// list, and only an unloadable source document makes Analyze return nil.
package relations

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
	"github.com/docweave/docweave/internal/search"
)

// Relationship classifies how a related document connects to the source.
type Relationship string

const (
	RelImplementsSpec      Relationship = "implements_spec"
	RelImplementationGuide Relationship = "implementation_guide"
	RelConsumesAPI         Relationship = "consumes_api"
	RelDependsOn           Relationship = "depends_on"
	RelReferences          Relationship = "references"
	RelSimilarContent      Relationship = "similar_content"
)

// RelatedDocument is one edge of the relationship graph, seen from the
// source document.
type RelatedDocument struct {
	Path            string       `json:"path"`
	Title           string       `json:"title"`
	Namespace       string       `json:"namespace"`
	Relationship    Relationship `json:"relationship"`
	Relevance       float64      `json:"relevance,omitempty"`
	SectionsLinked  []string     `json:"sections_linked,omitempty"`
	SectionsLinking []string     `json:"sections_linking,omitempty"`
	SharedConcepts  []string     `json:"shared_concepts,omitempty"`
}

// DependencyNode is one entry in the synthesized dependency chain.
type DependencyNode struct {
	Sequence  int             `json:"sequence"`
	Path      string          `json:"path"`
	Title     string          `json:"title"`
	Status    document.Status `json:"status"`
	Blocks    []string        `json:"blocks,omitempty"`
	DependsOn []string        `json:"depends_on,omitempty"`
}

// Analysis is the full relationship picture for one document.
type Analysis struct {
	Source       string            `json:"source"`
	Forward      []RelatedDocument `json:"forward_links"`
	Backward     []RelatedDocument `json:"backward_links"`
	Similar      []RelatedDocument `json:"similar_content"`
	Dependencies []DependencyNode  `json:"dependency_chain,omitempty"`
}

// Store provides read access to documents. Abstracted for testability (DIP).
type Store interface {
	GetDocument(path string) (*document.Snapshot, error)
}

// Searcher runs full-text queries against the corpus index.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

const defaultMaxDepth = 3

// Analyzer computes relationship analyses over a document store and its
// search index.
type Analyzer struct {
	store    Store
	searcher Searcher
	logger   *slog.Logger
	maxDepth int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxDepth overrides the traversal depth budget.
func WithMaxDepth(d int) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.maxDepth = d
		}
	}
}

// NewAnalyzer creates an Analyzer. A nil logger falls back to slog.Default.
func NewAnalyzer(store Store, searcher Searcher, logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		store:    store,
		searcher: searcher,
		logger:   logger,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the relationship picture for docPath. It returns nil when
// the source document cannot be loaded; callers treat nil as "no
// relationship data available".
func (a *Analyzer) Analyze(ctx context.Context, docPath string) *Analysis {
	docPath = address.NormalizeDocPath(docPath)
	snap, err := a.store.GetDocument(docPath)
	if err != nil {
		a.logger.Warn("relationship analysis skipped", "document", docPath, "error", err)
		return nil
	}

	base := newTraversal(docPath, a.maxDepth)
	out := &Analysis{Source: docPath}

	// Each goroutine owns one field of out and its own traversal copy.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Forward = a.forwardLinks(gctx, snap, base.fork())
		return nil
	})
	g.Go(func() error {
		out.Backward = a.backwardLinks(gctx, snap, base.fork())
		return nil
	})
	g.Go(func() error {
		out.Similar = a.similarContent(gctx, snap, base.fork())
		return nil
	})
	_ = g.Wait()

	out.Dependencies = a.dependencyChain(out.related())
	return out
}

// related returns the union of all three result sets, first occurrence of
// each path winning.
func (an *Analysis) related() []RelatedDocument {
	var out []RelatedDocument
	seen := map[string]bool{}
	for _, set := range [][]RelatedDocument{an.Forward, an.Backward, an.Similar} {
		for _, d := range set {
			if seen[d.Path] {
				continue
			}
			seen[d.Path] = true
			out = append(out, d)
		}
	}
	return out
}

// forwardLinks resolves every markdown link in the document body to a
// related document. Duplicate targets merge into one entry with their
// linked sections unioned.
func (a *Analyzer) forwardLinks(ctx context.Context, snap *document.Snapshot, tr *traversal) []RelatedDocument {
	sourceDir := path.Dir(snap.Address.Path)
	links := extractLinks(sourceDir, snap.Body())
	if len(links) == 0 {
		return nil
	}

	type agg struct {
		text     string
		sections []string
	}
	var order []string
	byTarget := map[string]*agg{}
	for _, l := range links {
		entry, ok := byTarget[l.target]
		if !ok {
			entry = &agg{text: l.text}
			byTarget[l.target] = entry
			order = append(order, l.target)
		}
		if l.section != "" {
			entry.sections = append(entry.sections, l.section)
		}
	}

	var out []RelatedDocument
	for _, target := range order {
		if ctx.Err() != nil {
			break
		}
		if tr.blocked(target) {
			continue
		}
		tr.visit(target)

		tSnap, err := a.store.GetDocument(target)
		if err != nil {
			a.logger.Debug("forward link target skipped", "target", target, "error", err)
			continue
		}
		meta := document.Meta(tSnap)
		entry := byTarget[target]
		out = append(out, RelatedDocument{
			Path:      target,
			Title:     meta.Title,
			Namespace: meta.Namespace,
			Relationship: classify(classifyInput{
				SourceNS:    snap.Address.Namespace,
				TargetNS:    meta.Namespace,
				LinkText:    entry.text,
				TargetTitle: meta.Title,
			}),
			SectionsLinked: uniqueStrings(entry.sections),
		})
	}
	return out
}

// backwardLinks finds documents whose content mentions the source path.
func (a *Analyzer) backwardLinks(ctx context.Context, snap *document.Snapshot, tr *traversal) []RelatedDocument {
	hits, err := a.searcher.Search(ctx, snap.Address.Path, search.Options{
		SearchIn:        []string{"content"},
		GroupByDocument: true,
		Limit:           20,
	})
	if err != nil {
		a.logger.Debug("backward link search failed", "document", snap.Address.Path, "error", err)
		return nil
	}

	var out []RelatedDocument
	for _, hit := range hits {
		if hit.DocumentPath == snap.Address.Path {
			continue
		}
		if tr.blocked(hit.DocumentPath) {
			continue
		}
		tr.visit(hit.DocumentPath)

		var linking []string
		for _, m := range hit.Matches {
			if m.Slug != "" {
				linking = append(linking, m.Slug)
			}
		}
		out = append(out, RelatedDocument{
			Path:      hit.DocumentPath,
			Title:     hit.DocumentTitle,
			Namespace: hit.Namespace,
			Relationship: classify(classifyInput{
				SourceNS:    hit.Namespace,
				TargetNS:    snap.Address.Namespace,
				TargetTitle: hit.DocumentTitle,
			}),
			SectionsLinking: uniqueStrings(linking),
		})
	}
	return out
}

// similarContent scores search candidates by shared keywords against the
// source document and keeps strong matches only.
func (a *Analyzer) similarContent(ctx context.Context, snap *document.Snapshot, tr *traversal) []RelatedDocument {
	srcKeywords := extractKeywords(snap.Title(), snap.Body())
	if len(srcKeywords) == 0 {
		return nil
	}

	seed := srcKeywords
	if len(seed) > keywordSeed {
		seed = seed[:keywordSeed]
	}
	hits, err := a.searcher.Search(ctx, strings.Join(seed, " "), search.Options{
		MatchAny:        true,
		GroupByDocument: true,
		Limit:           25,
	})
	if err != nil {
		a.logger.Debug("similarity search failed", "document", snap.Address.Path, "error", err)
		return nil
	}

	var out []RelatedDocument
	for _, hit := range hits {
		if ctx.Err() != nil {
			break
		}
		if hit.DocumentPath == snap.Address.Path {
			continue
		}
		if tr.blocked(hit.DocumentPath) {
			continue
		}
		tr.visit(hit.DocumentPath)

		cSnap, err := a.store.GetDocument(hit.DocumentPath)
		if err != nil {
			continue // skip unreadable candidates
		}
		score, shared := similarity(srcKeywords, extractKeywords(cSnap.Title(), cSnap.Body()))
		if score < similarityThreshold {
			continue
		}
		meta := document.Meta(cSnap)
		out = append(out, RelatedDocument{
			Path:           meta.Path,
			Title:          meta.Title,
			Namespace:      meta.Namespace,
			Relationship:   RelSimilarContent,
			Relevance:      score,
			SharedConcepts: shared,
		})
	}

	sortByRelevance(out)
	if len(out) > similarityMax {
		out = out[:similarityMax]
	}
	return out
}

func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
