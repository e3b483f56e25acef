package copytree

import (
	"path/filepath"
	"strings"
)

// ExcludeRule is the site builder's copy filter. It rejects dot entries, the
// destination directory (which may live inside the source), the reserved
// top-level names, files the build itself writes and anything matching a
// glob pattern.
type ExcludeRule struct {
	Destination string   // destination root; compared after cleaning to an absolute path
	Reserved    []string // top-level names, e.g. "_pages" and "_templates"
	Patterns    []string // filepath.Match globs, tried against Rel and Name
	Artifacts   []string // report and metrics files, see IsArtifact
}

// Allow implements Filter.
func (r ExcludeRule) Allow(e Entry) bool {
	if strings.HasPrefix(e.Name, ".") {
		return false
	}
	if e.IsDir && r.Destination != "" && SamePath(e.Path, r.Destination) {
		return false
	}
	if !strings.Contains(e.Rel, "/") {
		for _, name := range r.Reserved {
			if e.Rel == name {
				return false
			}
		}
	}
	if !e.IsDir {
		for _, artifact := range r.Artifacts {
			if IsArtifact(e.Path, artifact) {
				return false
			}
		}
	}
	for _, pattern := range r.Patterns {
		if ok, _ := filepath.Match(pattern, e.Rel); ok {
			return false
		}
		if ok, _ := filepath.Match(pattern, e.Name); ok {
			return false
		}
	}
	return true
}

// IsArtifact reports whether path is the build artifact written to artifact,
// or one of the temporary files created next to it while it is replaced.
func IsArtifact(path, artifact string) bool {
	if artifact == "" {
		return false
	}
	if !strings.HasPrefix(filepath.Base(path), filepath.Base(artifact)) {
		return false
	}
	return SamePath(filepath.Dir(path), filepath.Dir(artifact))
}

// SamePath reports whether a and b name the same directory.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	if absA == absB {
		return true
	}
	// Symlinked temp roots (macOS /var -> /private/var) still name the same directory.
	realA, errA := filepath.EvalSymlinks(absA)
	realB, errB := filepath.EvalSymlinks(absB)
	return errA == nil && errB == nil && realA == realB
}
