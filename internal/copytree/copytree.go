// Package copytree mirrors a directory tree into another directory, asking a
// Filter about every entry before copying or descending into it.
package copytree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/lava/internal/logfields"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
)

// Entry describes a source file or directory offered to a Filter.
type Entry struct {
	Path  string // absolute or source-rooted path
	Rel   string // path relative to the copy root, slash separated
	Name  string
	IsDir bool
}

// Filter decides whether an entry is copied. It is consulted once per
// directory; a rejected directory is never descended into.
type Filter interface {
	Allow(Entry) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(Entry) bool

// Allow calls f(e).
func (f FilterFunc) Allow(e Entry) bool { return f(e) }

// AllowAll copies everything.
var AllowAll Filter = FilterFunc(func(Entry) bool { return true })

// Stats summarises a copy.
type Stats struct {
	Files   int
	Bytes   int64
	Skipped int // entries rejected by the filter
	Failed  int
}

// Copy mirrors src into dst.
//
// Destination directories are created lazily, right before the first file
// below them is written, so empty or fully filtered directories are not
// mirrored. Files are overwritten and keep their permission bits. Entries are
// visited in lexical order and symlinked directories are not followed. A src
// that is not a directory fails with an IOFailure; a failure on a single entry
// is recorded and the walk continues, with all such failures joined into the
// returned error.
func Copy(src, dst string, filter Filter) (Stats, error) {
	var stats Stats
	if filter == nil {
		filter = AllowAll
	}

	info, err := os.Stat(src)
	if err != nil {
		return stats, serrors.NewIOFailure("stat copy source", src, err)
	}
	if !info.IsDir() {
		return stats, serrors.NewIOFailure("copy", src, errors.New("source is not a directory"))
	}

	c := copier{filter: filter, stats: &stats}
	c.walk(src, dst, "")
	return stats, errors.Join(c.errs...)
}

type copier struct {
	filter Filter
	stats  *Stats
	errs   []error
}

func (c *copier) fail(err error) {
	c.stats.Failed++
	c.errs = append(c.errs, err)
	slog.Warn("Copy failed", logfields.Error(err))
}

func (c *copier) walk(srcDir, dstDir, rel string) {
	// os.ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		c.fail(serrors.NewIOFailure("read directory", srcDir, err))
		return
	}

	for _, de := range entries {
		srcPath := filepath.Join(srcDir, de.Name())
		dstPath := filepath.Join(dstDir, de.Name())
		entryRel := de.Name()
		if rel != "" {
			entryRel = rel + "/" + de.Name()
		}

		// Linked files are copied by content. Linked directories are not
		// descended into: a link pointing at an ancestor would never end.
		info, err := os.Stat(srcPath)
		if err != nil {
			c.fail(serrors.NewIOFailure("stat", srcPath, err))
			continue
		}
		if de.Type()&os.ModeSymlink != 0 && info.IsDir() {
			slog.Debug("Skipping symlinked directory", logfields.Path(srcPath))
			continue
		}

		entry := Entry{Path: srcPath, Rel: entryRel, Name: de.Name(), IsDir: info.IsDir()}
		if !c.filter.Allow(entry) {
			c.stats.Skipped++
			slog.Debug("Skipping excluded entry", logfields.Path(srcPath))
			continue
		}

		if info.IsDir() {
			c.walk(srcPath, dstPath, entryRel)
			continue
		}
		if !info.Mode().IsRegular() {
			slog.Debug("Skipping non-regular file", logfields.Path(srcPath))
			continue
		}

		n, err := copyFile(srcPath, dstPath, info.Mode().Perm())
		if err != nil {
			c.fail(err)
			continue
		}
		c.stats.Files++
		c.stats.Bytes += n
	}
}

// copyFile copies a single file, creating the destination's parents first.
func copyFile(srcFile, dstFile string, perm os.FileMode) (int64, error) {
	// #nosec G304 -- srcFile comes from walking the copy root
	in, err := os.Open(srcFile)
	if err != nil {
		return 0, serrors.NewIOFailure("open", srcFile, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dstFile), 0o755); err != nil {
		return 0, serrors.NewIOFailure("create directory", filepath.Dir(dstFile), err)
	}

	// #nosec G304 -- dstFile mirrors a source path under the destination root
	out, err := os.OpenFile(dstFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, serrors.NewIOFailure("create", dstFile, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, serrors.NewIOFailure("write", dstFile, fmt.Errorf("copy from %s: %w", srcFile, err))
	}
	if err := out.Close(); err != nil {
		return n, serrors.NewIOFailure("close", dstFile, err)
	}
	// OpenFile only applies perm on creation; keep an existing file in sync.
	if err := os.Chmod(dstFile, perm); err != nil {
		slog.Warn("Could not set permissions", logfields.Path(dstFile), logfields.Error(err))
	}
	return n, nil
}
