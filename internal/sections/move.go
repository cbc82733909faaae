package sections

import (
	"errors"
	"fmt"

	"github.com/docweave/docweave/internal/address"
)

// Position places a moved section relative to the destination reference.
type Position string

const (
	PositionBefore Position = "before"
	PositionAfter  Position = "after"
	PositionChild  Position = "child"
)

var validPositions = map[Position]bool{
	PositionBefore: true,
	PositionAfter:  true,
	PositionChild:  true,
}

// ValidatePosition checks that a position is one of the known values.
func ValidatePosition(p Position) error {
	if !validPositions[p] {
		return fmt.Errorf("invalid position %q (valid: before, after, child)", p)
	}
	return nil
}

var positionOps = map[Position]Op{
	PositionBefore: OpInsertBefore,
	PositionAfter:  OpInsertAfter,
	PositionChild:  OpAppendChild,
}

// MoveRequest relocates a section (and its whole subtree) relative to a
// reference section, within one document or across two.
type MoveRequest struct {
	SourceDoc string
	SourceRef string
	DestDoc   string
	DestRef   string
	Position  Position
}

// MoveResult describes a completed move.
type MoveResult struct {
	Section string `json:"section"`
	From    string `json:"from"`
	To      string `json:"to"`
	Depth   int    `json:"depth"`
}

// Move relocates a section. The ordering differs by direction to keep the
// failure modes honest:
//
//   - Cross-document: create at the destination first, remove from the
//     source only after that succeeds. A failed creation leaves the source
//     untouched; a failed removal returns MoveDuplicatedError since the
//     content now exists in both documents.
//   - Same-document: the new section could collide with the still-present
//     source, so remove first, then create. A failed creation triggers a
//     rollback write of the pre-move content; if that write fails too, the
//     result is MoveDataLossError carrying the removed text.
func (e *Engine) Move(req MoveRequest) (*MoveResult, error) {
	if err := ValidatePosition(req.Position); err != nil {
		return nil, err
	}

	srcSnap, err := e.store.GetDocument(req.SourceDoc)
	if err != nil {
		return nil, err
	}
	_, srcH, err := address.ResolveSection(srcSnap.Index, srcSnap.Address, req.SourceRef)
	if err != nil {
		return nil, err
	}
	body := srcSnap.SectionBody(srcH)
	op := positionOps[req.Position]

	sameDoc := address.NormalizeDocPath(req.SourceDoc) == address.NormalizeDocPath(req.DestDoc)
	if !sameDoc {
		created, err := e.apply(Request{
			Document: req.DestDoc,
			Ref:      req.DestRef,
			Op:       op,
			Title:    srcH.Title,
			Content:  body,
		}, true)
		if err != nil {
			return nil, err
		}
		if _, err := e.apply(Request{Document: req.SourceDoc, Ref: srcH.Slug, Op: OpRemove}, true); err != nil {
			return nil, &MoveDuplicatedError{
				Section: srcH.Slug,
				Source:  req.SourceDoc,
				Dest:    req.DestDoc,
				Err:     err,
			}
		}
		return &MoveResult{
			Section: created.Section,
			From:    req.SourceDoc,
			To:      req.DestDoc,
			Depth:   created.Depth,
		}, nil
	}

	preMove := srcSnap.Raw
	removedRes, err := e.apply(Request{Document: req.SourceDoc, Ref: srcH.Slug, Op: OpRemove}, true)
	if err != nil {
		return nil, err
	}
	created, err := e.apply(Request{
		Document: req.DestDoc,
		Ref:      req.DestRef,
		Op:       op,
		Title:    srcH.Title,
		Content:  body,
	}, true)
	if err != nil {
		if werr := e.store.WriteDocument(req.SourceDoc, preMove); werr != nil {
			return nil, &MoveDataLossError{
				Section:        srcH.Slug,
				Document:       req.SourceDoc,
				RemovedContent: removedRes.RemovedContent,
				Err:            errors.Join(err, werr),
			}
		}
		return nil, fmt.Errorf("move of %q rolled back, document restored: %w", srcH.Slug, err)
	}

	return &MoveResult{
		Section: created.Section,
		From:    req.SourceDoc,
		To:      req.DestDoc,
		Depth:   created.Depth,
	}, nil
}
