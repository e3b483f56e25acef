// Package frontmatter splits a page into its delimited metadata block and
// body, and parses the block into key/value pairs.
package frontmatter

import (
	"bytes"
	"regexp"
	"strings"

	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
)

// fieldPattern matches `key : value`, split at the first colon, both sides trimmed.
var fieldPattern = regexp.MustCompile(`^\s*([^:]*?)\s*:\s*(.*?)\s*$`)

// Split separates the front-matter block from the body.
//
// The content must open with a line of three or more `-`. The block runs up
// to the next line made only of three or more `-`; the body is everything
// after that line. LF and CRLF endings are both accepted. Content without an
// opening or closing delimiter fails with ErrMissingFrontMatter.
func Split(content []byte) (block []byte, body []byte, err error) {
	first, rest, hasNewline := cutLine(content)
	if !isDelimiter(first) || !hasNewline {
		return nil, nil, serrors.ErrMissingFrontMatter
	}

	start := len(content) - len(rest)
	offset := start
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if isDelimiter(line) {
			return content[start:offset], next, nil
		}
		offset += len(rest) - len(next)
		rest = next
	}
	return nil, nil, serrors.ErrMissingFrontMatter
}

// Join reassembles a page from a raw block and body using `---` delimiters.
func Join(block []byte, body []byte) []byte {
	out := make([]byte, 0, len(block)+len(body)+9)
	out = append(out, "---\n"...)
	out = append(out, block...)
	if len(block) > 0 && block[len(block)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, "---\n"...)
	out = append(out, body...)
	return out
}

// ParseFields parses each `key: value` line of a front-matter block.
//
// Blank lines, lines without a colon and lines with an empty key are
// ignored. A repeated key keeps its last value.
func ParseFields(block []byte) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := fieldPattern.FindStringSubmatch(line)
		if m == nil || m[1] == "" {
			continue
		}
		fields[m[1]] = m[2]
	}
	return fields
}

// cutLine returns the first line of b without its line ending, the
// remainder after the newline, and whether a newline was present.
func cutLine(b []byte) (line, rest []byte, hasNewline bool) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return bytes.TrimSuffix(b, []byte("\r")), nil, false
	}
	return bytes.TrimSuffix(b[:idx], []byte("\r")), b[idx+1:], true
}

func isDelimiter(line []byte) bool {
	if len(line) < 3 {
		return false
	}
	for _, c := range line {
		if c != '-' {
			return false
		}
	}
	return true
}
