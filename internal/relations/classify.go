package relations

import "strings"

// classifyInput is everything the classification heuristic may look at.
type classifyInput struct {
	SourceNS    string
	TargetNS    string
	LinkText    string
	TargetTitle string
}

// rule is one predicate in the classification table.
type rule struct {
	name string
	when func(classifyInput) bool
	rel  Relationship
}

// classifyRules is evaluated in order, first match wins. The order encodes
// precedence: namespace pairs are the strongest signal, then link text,
// then the target's title.
var classifyRules = []rule{
	{
		name: "spec namespace links guide or implementation",
		when: func(in classifyInput) bool {
			return nsIn(in.SourceNS, "spec", "specs") &&
				nsIn(in.TargetNS, "guide", "guides", "impl", "implementation", "implementations", "backend", "frontend")
		},
		rel: RelImplementationGuide,
	},
	{
		name: "backend or service namespace links spec",
		when: func(in classifyInput) bool {
			return nsIn(in.SourceNS, "backend", "service", "services") &&
				nsIn(in.TargetNS, "spec", "specs")
		},
		rel: RelImplementsSpec,
	},
	{
		name: "frontend or component namespace links api",
		when: func(in classifyInput) bool {
			return nsIn(in.SourceNS, "frontend", "component", "components") &&
				nsIn(in.TargetNS, "api", "apis")
		},
		rel: RelConsumesAPI,
	},
	{
		name: "dependency wording in link text",
		when: func(in classifyInput) bool {
			return containsAny(strings.ToLower(in.LinkText), "depend", "require", "prerequisite")
		},
		rel: RelDependsOn,
	},
	{
		name: "guide-like target title",
		when: func(in classifyInput) bool {
			return containsAny(strings.ToLower(in.TargetTitle), "guide", "tutorial", "how to")
		},
		rel: RelImplementationGuide,
	},
	{
		name: "spec-like target title",
		when: func(in classifyInput) bool {
			return containsAny(strings.ToLower(in.TargetTitle), "spec", "api")
		},
		rel: RelImplementsSpec,
	},
}

// classify runs the rule table and falls back to a plain reference.
func classify(in classifyInput) Relationship {
	for _, r := range classifyRules {
		if r.when(in) {
			return r.rel
		}
	}
	return RelReferences
}

func nsIn(ns string, names ...string) bool {
	ns = strings.ToLower(strings.TrimSpace(ns))
	for _, n := range names {
		if ns == n {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
