package address

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code is a machine-readable error code carried by Error. Codes are stable
// strings so agent callers can branch on them without parsing messages.
type Code string

const (
	CodeInvalidPath        Code = "INVALID_PATH"
	CodeMissingDocument    Code = "MISSING_DOCUMENT_PATH"
	CodeMissingSlug        Code = "MISSING_SLUG"
	CodeMalformedSlug      Code = "MALFORMED_SLUG"
	CodeSectionNotFound    Code = "SECTION_NOT_FOUND"
	CodeTaskSectionMissing Code = "TASK_SECTION_MISSING"
	CodeNotATask           Code = "NOT_A_TASK"
)

// Error is a structured addressing failure. Every resolution error carries
// a code plus enough context (offending segment, available slugs) for the
// caller to self-correct without re-querying the document.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
}

// Error implements the error interface. Context is rendered in a fixed
// order since MCP callers see this text verbatim.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	ordered := []string{"document", "slug", "segment", "available"}
	seen := make(map[string]bool, len(ordered))
	var parts []string
	for _, k := range ordered {
		if v, ok := e.Context[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			seen[k] = true
		}
	}
	var rest []string
	for k := range e.Context {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// newError builds an Error with the given code, message, and optional
// context pairs (key, value, key, value, ...).
func newError(code Code, msg string, kv ...any) *Error {
	e := &Error{Code: code, Message: msg}
	if len(kv) > 0 {
		e.Context = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				continue
			}
			e.Context[key] = kv[i+1]
		}
	}
	return e
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
