package relations

import (
	"sort"
	"strings"
	"unicode"
)

const (
	keywordSample       = 1000 // body prefix considered for keywords
	keywordSeed         = 5    // top keywords used to seed the search
	similarityThreshold = 0.6
	similarityMax       = 10
)

var stopwords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "been": true, "before": true, "between": true,
	"but": true, "by": true, "can": true, "each": true, "for": true,
	"from": true, "has": true, "have": true, "how": true, "in": true,
	"into": true, "is": true, "it": true, "its": true, "more": true,
	"not": true, "of": true, "on": true, "only": true, "or": true,
	"other": true, "our": true, "out": true, "over": true, "per": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "then": true, "these": true, "they": true, "this": true,
	"those": true, "to": true, "under": true, "use": true, "used": true,
	"using": true, "via": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"will": true, "with": true, "you": true, "your": true,
}

// extractKeywords tokenizes the title plus the first part of the body into
// lowercased keywords: markdown punctuation acts as separators, stop-words
// and pure-numeric tokens are dropped, duplicates keep their first
// position.
func extractKeywords(title, body string) []string {
	if len(body) > keywordSample {
		body = body[:keywordSample]
	}
	tokens := strings.FieldsFunc(strings.ToLower(title+" "+body), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, tok := range tokens {
		if len(tok) < 3 || stopwords[tok] || isNumeric(tok) {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(tok) > 0
}

// similarity scores two keyword sets: |shared| / max(|src|, |cand|).
// The shared keywords come back in source order.
func similarity(src, cand []string) (float64, []string) {
	if len(src) == 0 || len(cand) == 0 {
		return 0, nil
	}
	in := make(map[string]bool, len(cand))
	for _, k := range cand {
		in[k] = true
	}
	var shared []string
	for _, k := range src {
		if in[k] {
			shared = append(shared, k)
		}
	}
	max := len(src)
	if len(cand) > max {
		max = len(cand)
	}
	return float64(len(shared)) / float64(max), shared
}

// sortByRelevance orders high scores first, ties broken by path for
// deterministic output.
func sortByRelevance(docs []RelatedDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Relevance != docs[j].Relevance {
			return docs[i].Relevance > docs[j].Relevance
		}
		return docs[i].Path < docs[j].Path
	})
}
