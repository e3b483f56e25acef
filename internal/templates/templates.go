// Package templates loads page templates and inlines their partials.
package templates

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/lava/internal/logfields"
	"git.home.luguber.info/inful/lava/internal/partials"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
)

// Template is a composed page template.
type Template struct {
	Name       string
	Raw        string
	Composed   string
	Unresolved []string // partial names left unexpanded in Composed
}

// Set maps template names to templates. Like partials, a template answers
// to its file name and to its unambiguous stem.
type Set map[string]*Template

// Lookup returns the template registered under name.
func (s Set) Lookup(name string) (*Template, bool) {
	t, ok := s[name]
	return t, ok
}

// Templates returns each distinct template once, ordered by name.
func (s Set) Templates() []*Template {
	seen := make(map[*Template]bool, len(s))
	out := make([]*Template, 0, len(s))
	for _, t := range s {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Warning is a non-fatal problem found while loading templates.
type Warning struct {
	Path string
	Err  error
}

// Result is the outcome of Load.
type Result struct {
	Set      Set
	Warnings []Warning
}

// Load reads the regular files at the top level of dir and composes each
// with set. Subdirectories, including the partials directory, are skipped.
// An unreadable template file is skipped with a warning; an unresolved
// partial reference is reported as a warning but the template is kept.
func Load(dir string, set partials.Set) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, serrors.NewIOFailure("read templates directory", dir, err)
	}

	res := &Result{Set: make(Set, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		// #nosec G304 -- path comes from listing the configured templates directory
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Could not read template", logfields.Path(path), logfields.Error(err))
			res.Warnings = append(res.Warnings, Warning{Path: path, Err: serrors.NewIOFailure("read template", path, err)})
			continue
		}

		composed, unresolved := Compose(string(raw), set)
		for _, name := range unresolved {
			slog.Warn("Partial not found", logfields.Partial(name), logfields.Template(entry.Name()))
			res.Warnings = append(res.Warnings, Warning{Path: path, Err: &serrors.UnresolvedPartial{Name: name, Template: entry.Name()}})
		}
		res.Set[entry.Name()] = &Template{
			Name:       entry.Name(),
			Raw:        string(raw),
			Composed:   composed,
			Unresolved: unresolved,
		}
	}

	names := make([]string, 0, len(res.Set))
	for name := range res.Set {
		names = append(names, name)
	}
	for stem, name := range partials.StemAliases(names) {
		res.Set[stem] = res.Set[name]
	}
	return res, nil
}
