// Package partials loads the named text fragments that templates inline.
package partials

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/lava/internal/logfields"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
)

// Set maps a partial name to its body. Every partial is reachable by its
// file name and, when no other file claims it, by its stem.
type Set map[string]string

// Load reads every regular file at the top level of dir.
//
// Unreadable files are skipped with a warning. An empty directory yields an
// empty set. Failing to list dir is an IOFailure.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, serrors.NewIOFailure("read partials directory", dir, err)
	}

	set := make(Set, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			slog.Debug("Skipping directory in partials", logfields.Path(path))
			continue
		}
		// #nosec G304 -- path comes from listing the configured partials directory
		body, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Could not read partial", logfields.Path(path), logfields.Error(err))
			continue
		}
		set[entry.Name()] = string(body)
	}

	for stem, name := range StemAliases(set.Names()) {
		set[stem] = set[name]
	}
	slog.Debug("Partials loaded", logfields.Path(dir), logfields.Count(len(set)))
	return set, nil
}

// Lookup returns the body registered under name.
func (s Set) Lookup(name string) (string, bool) {
	body, ok := s[name]
	return body, ok
}

// Names returns the registered names in lexical order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Files returns the file names in the set in lexical order, leaving out
// stem aliases.
func (s Set) Files() []string {
	names := s.Names()
	owners := make(map[string][]string)
	for _, name := range names {
		if stem := strings.TrimSuffix(name, filepath.Ext(name)); stem != name {
			owners[stem] = append(owners[stem], name)
		}
	}
	files := make([]string, 0, len(names))
	for _, name := range names {
		if o := owners[name]; len(o) == 1 && s[o[0]] == s[name] {
			continue
		}
		files = append(files, name)
	}
	return files
}

// StemAliases maps extension-less stems to their full file name for every
// stem that is unambiguous: exactly one file has it and no file is named
// exactly like it.
func StemAliases(names []string) map[string]string {
	full := make(map[string]bool, len(names))
	for _, name := range names {
		full[name] = true
	}
	owners := make(map[string][]string)
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem == "" || stem == name {
			continue
		}
		owners[stem] = append(owners[stem], name)
	}
	aliases := make(map[string]string)
	for stem, names := range owners {
		if len(names) == 1 && !full[stem] {
			aliases[stem] = names[0]
		}
	}
	return aliases
}
