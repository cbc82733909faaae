package sections

import "fmt"

// OperationError wraps an unexpected lower-layer failure during a mutation.
// Structural validation failures are never wrapped in it — they propagate
// as their own types so callers can distinguish "you asked wrong" from
// "the write broke".
type OperationError struct {
	Op  Op
	Ref string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s of %q failed: %v", e.Op, e.Ref, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// MoveDuplicatedError reports a cross-document move whose source removal
// failed after the destination copy was already created. The content exists
// in both documents; duplication is preferred over loss.
type MoveDuplicatedError struct {
	Section string
	Source  string
	Dest    string
	Err     error
}

func (e *MoveDuplicatedError) Error() string {
	return fmt.Sprintf("move of %q: copy created in %s but removal from %s failed: %v — content may be duplicated",
		e.Section, e.Dest, e.Source, e.Err)
}

func (e *MoveDuplicatedError) Unwrap() error { return e.Err }

// MoveDataLossError reports a same-document move whose creation failed
// after the source was removed and whose rollback write also failed.
// RemovedContent carries the orphaned section text so the caller can still
// recover it.
type MoveDataLossError struct {
	Section        string
	Document       string
	RemovedContent string
	Err            error
}

func (e *MoveDataLossError) Error() string {
	return fmt.Sprintf("move of %q in %s failed and rollback failed: %v — data may be lost; recover from removed_content",
		e.Section, e.Document, e.Err)
}

func (e *MoveDataLossError) Unwrap() error { return e.Err }
