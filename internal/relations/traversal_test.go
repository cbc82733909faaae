package relations

import "testing"

func TestTraversalBlocked(t *testing.T) {
	tr := newTraversal("/a.md", 3).fork()

	if !tr.blocked("/a.md") {
		t.Error("source document must be blocked (it is on the current path)")
	}
	if tr.blocked("/b.md") {
		t.Error("fresh target should not be blocked")
	}

	tr.visit("/b.md")
	if !tr.blocked("/b.md") {
		t.Error("visited target must be blocked")
	}
}

func TestTraversalDepthBudget(t *testing.T) {
	base := newTraversal("/a.md", 2)

	one := base.fork()
	if one.blocked("/b.md") {
		t.Error("depth 1 of 2 should still allow targets")
	}
	two := one.fork()
	if !two.blocked("/b.md") {
		t.Error("depth 2 of 2 must block further targets")
	}
}

func TestTraversalForkIsIndependent(t *testing.T) {
	base := newTraversal("/a.md", 3)
	left, right := base.fork(), base.fork()

	left.visit("/b.md")
	if right.blocked("/b.md") {
		t.Error("visit in one fork leaked into a sibling fork")
	}
	if base.blocked("/b.md") {
		t.Error("visit in a fork leaked into the base traversal")
	}
}
