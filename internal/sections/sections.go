// Package sections implements the section mutation engine: structural edits
// to one document at a time, addressed by resolved section slugs. Every
// operation is a sequential read-modify-write — fetch a snapshot, splice
// its lines, write the result atomically through the store. The engine
// holds no document state of its own; caching and invalidation belong to
// the injected store (DIP).
package sections

import (
	"fmt"
	"strings"
	"time"

	"github.com/docweave/docweave/internal/address"
	"github.com/docweave/docweave/internal/document"
)

// Op is a section mutation operation.
type Op string

const (
	OpReplace      Op = "replace"
	OpAppend       Op = "append"
	OpPrepend      Op = "prepend"
	OpInsertBefore Op = "insert_before"
	OpInsertAfter  Op = "insert_after"
	OpAppendChild  Op = "append_child"
	OpRemove       Op = "remove"
)

var validOps = map[Op]bool{
	OpReplace:      true,
	OpAppend:       true,
	OpPrepend:      true,
	OpInsertBefore: true,
	OpInsertAfter:  true,
	OpAppendChild:  true,
	OpRemove:       true,
}

// ValidateOp checks that an operation is one of the known values.
func ValidateOp(op Op) error {
	if !validOps[op] {
		return fmt.Errorf("invalid operation %q (valid: replace, append, prepend, insert_before, insert_after, append_child, remove)", op)
	}
	return nil
}

// creatingOps are the operations that introduce a new heading and therefore
// require a title.
var creatingOps = map[Op]bool{
	OpInsertBefore: true,
	OpInsertAfter:  true,
	OpAppendChild:  true,
}

// Action classifies what a mutation did.
type Action string

const (
	ActionEdited  Action = "edited"
	ActionCreated Action = "created"
	ActionRemoved Action = "removed"
)

// Request is one section mutation against one document.
type Request struct {
	Document string // canonical document path
	Ref      string // slug of the reference section, possibly hierarchical
	Op       Op
	Content  string // new or added body text
	Title    string // new section title, required by creating ops
}

// Result describes one applied mutation. Depth is read back from the
// re-parsed post-mutation index, never assumed from the request.
type Result struct {
	Action         Action `json:"action"`
	Section        string `json:"section"`
	Depth          int    `json:"depth,omitempty"`
	RemovedContent string `json:"removed_content,omitempty"`
}

// Store is the document access the engine needs. Implemented by
// document.Manager.
type Store interface {
	GetDocument(path string) (*document.Snapshot, error)
	WriteDocument(path, content string) error
}

// Engine applies section mutations through a Store.
type Engine struct {
	store Store
}

// NewEngine creates a mutation engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply validates and applies a single mutation, returning the result or
// the first error. Structural errors (unknown section, bad operation)
// propagate as-is; write failures are wrapped in OperationError.
func (e *Engine) Apply(req Request) (*Result, error) {
	return e.apply(req, false)
}

// apply is Apply with an escape hatch for the move protocol, which must be
// able to re-create a section whose body was legitimately empty.
func (e *Engine) apply(req Request, allowEmpty bool) (*Result, error) {
	if err := ValidateOp(req.Op); err != nil {
		return nil, err
	}
	if req.Op != OpRemove && !allowEmpty && strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required for %s", req.Op)
	}
	if creatingOps[req.Op] && strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required for %s", req.Op)
	}

	snap, err := e.store.GetDocument(req.Document)
	if err != nil {
		return nil, err
	}
	_, ref, err := address.ResolveSection(snap.Index, snap.Address, req.Ref)
	if err != nil {
		return nil, err
	}

	var (
		lines      = snap.Lines
		block      = blockOf(req.Content)
		newLines   []string
		action     Action
		anchorLine = ref.Line // line of the heading the result refers to
		removed    string
	)

	switch req.Op {
	case OpReplace:
		bs, be := snap.BodySpan(ref)
		newLines = splice(lines, bs, be, paddedBody(block))
		action = ActionEdited

	case OpAppend:
		bs, be := snap.BodySpan(ref)
		body := trimBlankTail(lines[bs:be])
		body = append(body, "")
		body = append(body, block...)
		body = append(body, "")
		newLines = splice(lines, bs, be, body)
		action = ActionEdited

	case OpPrepend:
		bs, be := snap.BodySpan(ref)
		body := append([]string{""}, block...)
		body = append(body, "")
		body = append(body, trimBlankHead(lines[bs:be])...)
		newLines = splice(lines, bs, be, body)
		action = ActionEdited

	case OpInsertBefore:
		ss, _ := snap.SectionSpan(ref)
		sec := sectionBlock(ref.Depth, req.Title, block)
		pad := 0
		if ss > 0 && lines[ss-1] != "" {
			sec = append([]string{""}, sec...)
			pad = 1
		}
		anchorLine = ss + pad
		newLines = splice(lines, ss, ss, sec)
		action = ActionCreated

	case OpInsertAfter:
		_, se := snap.SectionSpan(ref)
		sec := sectionBlock(ref.Depth, req.Title, block)
		pad := 0
		if se > 0 && lines[se-1] != "" {
			sec = append([]string{""}, sec...)
			pad = 1
		}
		anchorLine = se + pad
		newLines = splice(lines, se, se, sec)
		action = ActionCreated

	case OpAppendChild:
		if ref.Depth >= 6 {
			return nil, fmt.Errorf("cannot create a child of %q: heading depth would exceed 6", ref.Slug)
		}
		_, se := snap.SectionSpan(ref)
		sec := sectionBlock(ref.Depth+1, req.Title, block)
		pad := 0
		if se > 0 && lines[se-1] != "" {
			sec = append([]string{""}, sec...)
			pad = 1
		}
		anchorLine = se + pad
		newLines = splice(lines, se, se, sec)
		action = ActionCreated

	case OpRemove:
		ss, se := snap.SectionSpan(ref)
		removed = strings.Join(lines[ss:se], "\n")
		newLines = splice(lines, ss, se, nil)
		action = ActionRemoved
	}

	newContent := strings.Join(newLines, "\n")
	if err := e.store.WriteDocument(req.Document, newContent); err != nil {
		return nil, &OperationError{Op: req.Op, Ref: req.Ref, Err: err}
	}

	res := &Result{Action: action, Section: ref.Slug, RemovedContent: removed}
	if action != ActionRemoved {
		post := document.NewSnapshot(req.Document, newContent, time.Now())
		if h, ok := headingAtLine(post.Index, anchorLine); ok {
			res.Section = h.Slug
			res.Depth = h.Depth
		}
	}
	return res, nil
}

// blockOf normalizes caller content into lines, dropping surrounding blank
// lines. Whitespace-only content yields nil.
func blockOf(content string) []string {
	trimmed := strings.Trim(content, "\n")
	if strings.TrimSpace(trimmed) == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// paddedBody wraps a content block in single blank lines, the body shape
// every mutation writes: heading, blank, content, blank, next heading.
func paddedBody(block []string) []string {
	body := make([]string, 0, len(block)+2)
	body = append(body, "")
	body = append(body, block...)
	body = append(body, "")
	return body
}

// sectionBlock renders a new section: heading marker, blank line, content,
// trailing blank.
func sectionBlock(depth int, title string, block []string) []string {
	sec := []string{strings.Repeat("#", depth) + " " + strings.TrimSpace(title)}
	if block != nil {
		sec = append(sec, "")
		sec = append(sec, block...)
	}
	sec = append(sec, "")
	return sec
}

// splice replaces lines[start:end] with replacement.
func splice(lines []string, start, end int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}

func trimBlankTail(ls []string) []string {
	end := len(ls)
	for end > 0 && strings.TrimSpace(ls[end-1]) == "" {
		end--
	}
	return append([]string(nil), ls[:end]...)
}

func trimBlankHead(ls []string) []string {
	start := 0
	for start < len(ls) && strings.TrimSpace(ls[start]) == "" {
		start++
	}
	return append([]string(nil), ls[start:]...)
}

// headingAtLine finds the heading whose marker sits on the given line.
// Mutations locate their result this way because slugs can shift when an
// insertion introduces a duplicate title.
func headingAtLine(ix *address.Index, line int) (address.Heading, bool) {
	for _, h := range ix.Headings {
		if h.Line == line {
			return h, true
		}
	}
	return address.Heading{}, false
}
