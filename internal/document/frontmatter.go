package document

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the parsed YAML header of a document. Fields holds the
// complete mapping; the typed accessors cover the keys the server itself
// interprets. A structurally present but syntactically broken header still
// counts as frontmatter (so mutations leave it untouched) — it just carries
// no fields.
type FrontMatter struct {
	Fields map[string]any
}

// Title returns the frontmatter title, or "".
func (f FrontMatter) Title() string {
	if s, ok := f.Fields["title"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Completion returns the numeric completion percentage if the frontmatter
// declares one. YAML decodes integers as int and floats as float64; both
// are accepted.
func (f FrontMatter) Completion() (int, bool) {
	switch v := f.Fields["completion"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// splitFrontMatter returns the YAML text of a leading frontmatter block and
// the zero-based line where the body starts. A block opens with "---" on the
// first line and closes with "---" or "..."; without a closing fence the
// whole document is body.
func splitFrontMatter(lines []string) (yamlText string, bodyLine int) {
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return "", 0
	}
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], "\r")
		if trimmed == "---" || trimmed == "..." {
			return strings.Join(lines[1:i], "\n"), i + 1
		}
	}
	return "", 0
}

// parseFrontMatter splits and decodes the frontmatter block.
func parseFrontMatter(lines []string) (FrontMatter, int) {
	yamlText, bodyLine := splitFrontMatter(lines)
	if bodyLine == 0 {
		return FrontMatter{}, 0
	}
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(yamlText), &fields); err != nil {
		return FrontMatter{}, bodyLine
	}
	return FrontMatter{Fields: fields}, bodyLine
}
