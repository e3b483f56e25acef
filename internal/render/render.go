// Package render substitutes page metadata into composed templates.
package render

import "strings"

const (
	openMarker  = "{{= "
	closeMarker = "}}"
)

// Result is the rendered text plus the placeholder keys that had no value.
type Result struct {
	Text       string
	Unresolved []string // unique, in order of first appearance
}

// Render replaces every `{{= key}}` token in tmpl with metadata[key].
//
// The template is scanned once from left to right; substituted values are
// never scanned again, so the output does not depend on map iteration order
// and a value that looks like a token is emitted as-is. Tokens whose key is
// absent stay verbatim, as does an unterminated `{{= `.
func Render(tmpl string, metadata map[string]string) Result {
	var (
		b          strings.Builder
		unresolved []string
		seen       map[string]bool
	)
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		open := strings.Index(rest, openMarker)
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		afterOpen := rest[open+len(openMarker):]

		end := strings.Index(afterOpen, closeMarker)
		if end < 0 {
			b.WriteString(rest[open:])
			break
		}
		key := afterOpen[:end]

		// `{{= a {{= b}}`: the outer marker is literal text, rescan from the inner one.
		if inner := strings.Index(key, openMarker); inner >= 0 {
			skip := open + len(openMarker) + inner
			b.WriteString(rest[open:skip])
			rest = rest[skip:]
			continue
		}

		token := rest[open : open+len(openMarker)+end+len(closeMarker)]
		if value, ok := metadata[key]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(token)
			if seen == nil {
				seen = make(map[string]bool)
			}
			if !seen[key] {
				seen[key] = true
				unresolved = append(unresolved, key)
			}
		}
		rest = rest[open+len(token):]
	}

	return Result{Text: b.String(), Unresolved: unresolved}
}
