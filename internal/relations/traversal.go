package relations

// traversal carries cycle-detection state through one analysis call. Each
// sub-traversal works on its own fork, so there is no shared mutable state
// and no locking.
type traversal struct {
	visited     map[string]struct{}
	currentPath []string
	depth       int
	maxDepth    int
}

func newTraversal(source string, maxDepth int) *traversal {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &traversal{
		visited:     map[string]struct{}{source: {}},
		currentPath: []string{source},
		depth:       0,
		maxDepth:    maxDepth,
	}
}

// fork returns an independent depth-incremented copy.
func (t *traversal) fork() *traversal {
	visited := make(map[string]struct{}, len(t.visited))
	for p := range t.visited {
		visited[p] = struct{}{}
	}
	return &traversal{
		visited:     visited,
		currentPath: append([]string(nil), t.currentPath...),
		depth:       t.depth + 1,
		maxDepth:    t.maxDepth,
	}
}

// blocked reports whether a target must be skipped: the depth budget is
// exhausted, the target was already visited, or it sits on the active path
// (a cycle).
func (t *traversal) blocked(target string) bool {
	if t.depth >= t.maxDepth {
		return true
	}
	if _, ok := t.visited[target]; ok {
		return true
	}
	for _, p := range t.currentPath {
		if p == target {
			return true
		}
	}
	return false
}

func (t *traversal) visit(target string) {
	t.visited[target] = struct{}{}
}
