package templates

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/lava/internal/partials"
)

// partialRef matches `{{p name}}`. The name is non-greedy, may not span
// lines, and is trimmed of surrounding whitespace by the pattern.
var partialRef = regexp.MustCompile(`\{\{p\s+(.*?)\s*\}\}`)

// Compose inlines every partial reference in raw.
//
// Composition is a single pass over raw: inserted partial bodies are never
// scanned again, so a partial that references another partial is inserted
// literally. References to unknown partials stay in place and their names
// are returned in order of first appearance.
func Compose(raw string, set partials.Set) (composed string, unresolved []string) {
	matches := partialRef.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return raw, nil
	}

	seen := make(map[string]bool)
	var b strings.Builder
	b.Grow(len(raw))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		name := raw[m[2]:m[3]]
		b.WriteString(raw[last:start])
		if body, ok := set.Lookup(name); ok {
			b.WriteString(body)
		} else {
			b.WriteString(raw[start:end])
			if !seen[name] {
				seen[name] = true
				unresolved = append(unresolved, name)
			}
		}
		last = end
	}
	b.WriteString(raw[last:])
	return b.String(), unresolved
}
