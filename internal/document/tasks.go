package document

import (
	"fmt"
	"strings"

	"github.com/docweave/docweave/internal/address"
)

// Status is the lifecycle state of a task section.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidateStatus checks that a status is one of the known values.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid status %q (valid: pending, in_progress, completed)", s)
	}
	return nil
}

// NormalizeStatus maps common spellings onto the canonical values:
// "in progress" and "in-progress" to in_progress, "done" and "complete" to
// completed. Unrecognized input comes back unchanged for ValidateStatus to
// reject.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	switch s {
	case "done", "complete":
		return StatusCompleted
	case "in_progress":
		return StatusInProgress
	}
	return Status(s)
}

// TaskInfo is one task entry: an immediate child section of a Tasks
// heading, with its parsed status.
type TaskInfo struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Status Status `json:"status"`
	Line   int    `json:"line"`
}

// Tasks lists the task entries of a snapshot: for every heading slugged or
// titled "tasks", its children exactly one level deeper. Deeper headings
// are task sub-content, not tasks.
func Tasks(s *Snapshot) []TaskInfo {
	var out []TaskInfo
	for _, h := range s.Index.Headings {
		if !address.IsTasksHeading(h) {
			continue
		}
		for _, child := range s.Index.Children(h) {
			out = append(out, TaskInfo{
				Slug:   child.Slug,
				Title:  child.Title,
				Status: taskStatus(s.SectionBody(child)),
				Line:   child.Line,
			})
		}
	}
	return out
}

// taskStatus scans a task body for its first "Status: <value>" line. A
// missing or unrecognized status means pending.
func taskStatus(body string) Status {
	for _, line := range strings.Split(body, "\n") {
		raw, ok := statusValue(line)
		if !ok {
			continue
		}
		if st := NormalizeStatus(raw); validStatuses[st] {
			return st
		}
		return StatusPending
	}
	return StatusPending
}

// statusValue extracts the value of a status line. Bullet markers and bold
// are tolerated ("- **Status:** done" reads as "done").
func statusValue(line string) (string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "-*")
	s = strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
	if len(s) < 7 || !strings.EqualFold(s[:7], "status:") {
		return "", false
	}
	return s[7:], true
}

// StatusLine renders the canonical status line written into task bodies.
func StatusLine(s Status) string {
	return "Status: " + string(s)
}

// SetStatus rewrites the first status line of a task body to the canonical
// form, or prepends one when the body has none. The rest of the body is
// untouched.
func SetStatus(body string, s Status) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if _, ok := statusValue(line); ok {
			lines[i] = StatusLine(s)
			return strings.Join(lines, "\n")
		}
	}
	rest := strings.TrimLeft(body, "\n")
	if strings.TrimSpace(rest) == "" {
		return StatusLine(s)
	}
	return StatusLine(s) + "\n\n" + rest
}
