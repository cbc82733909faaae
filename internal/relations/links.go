package relations

import (
	"path"
	"regexp"
	"strings"

	"github.com/docweave/docweave/internal/address"
)

// linkPattern matches inline markdown links, with an optional title part
// after the target.
var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

type link struct {
	text    string
	target  string // normalized document path
	section string // optional fragment slug
}

// extractLinks pulls document links out of a markdown body. External URLs,
// mail links, bare fragments, and non-markdown targets are dropped;
// relative targets resolve against sourceDir.
func extractLinks(sourceDir, body string) []link {
	var out []link
	for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
		text, raw := m[1], m[2]
		if skipTarget(raw) {
			continue
		}
		target, frag := splitFragment(raw)
		if target == "" {
			continue
		}
		doc := normalizeTarget(sourceDir, target)
		if doc == "" {
			continue
		}
		out = append(out, link{text: text, target: doc, section: frag})
	}
	return out
}

func skipTarget(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "://") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(raw, "#")
}

func splitFragment(raw string) (target, frag string) {
	if i := strings.Index(raw, "#"); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

func normalizeTarget(sourceDir, target string) string {
	target = strings.TrimSuffix(target, "/")
	if ext := path.Ext(target); ext != "" && ext != ".md" {
		return "" // images and other assets
	}
	if !strings.HasPrefix(target, "/") {
		target = path.Join(sourceDir, target)
	}
	return address.NormalizeDocPath(target)
}
