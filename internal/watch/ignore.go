package watch

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/lava/internal/copytree"
)

// Ignore filters out changes that must not trigger a rebuild: dot entries
// anywhere below Root, editor temporaries and everything a build writes.
type Ignore struct {
	Root        string
	Destination string
	Artifacts   []string // report and metrics files rewritten by every build
	Extra       []string // file name globs, e.g. the config's exclude patterns
}

// Match reports whether path should be ignored.
func (i Ignore) Match(path string) bool {
	if rel, err := filepath.Rel(i.Root, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if strings.HasPrefix(part, ".") {
				return true
			}
		}
	}
	if i.insideDestination(path) {
		return true
	}
	for _, artifact := range i.Artifacts {
		if copytree.IsArtifact(path, artifact) {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}
	for _, pattern := range i.Extra {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (i Ignore) insideDestination(path string) bool {
	if i.Destination == "" || copytree.SamePath(i.Root, i.Destination) {
		return false
	}
	for p := path; ; {
		if copytree.SamePath(p, i.Destination) {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
