package site

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/lava/internal/copytree"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/logfields"
	"git.home.luguber.info/inful/lava/internal/page"
	"git.home.luguber.info/inful/lava/internal/partials"
	"git.home.luguber.info/inful/lava/internal/render"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
	"git.home.luguber.info/inful/lava/internal/templates"
)

func stagePrepareOutput(_ context.Context, bs *buildState) error {
	dest := bs.cfg.Destination
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fatal(bs, IssueOutputUnavailable, StagePrepareOutput, dest, ferrors.FileSystemError,
			"destination not creatable", serrors.NewIOFailure("create destination", dest, err))
	}
	return nil
}

func stageLoadPartials(_ context.Context, bs *buildState) error {
	dir := bs.cfg.PartialsPath()
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		bs.log.Warn("Partials directory not found, continuing without partials", logfields.Path(dir))
		bs.warn(IssuePartialsMissing, StageLoadPartials, dir, serrors.NewIOFailure("stat partials directory", dir, err))
		bs.partials = partials.Set{}
		return nil
	}

	set, err := partials.Load(dir)
	if err != nil {
		return fatal(bs, IssuePartialsUnreadable, StageLoadPartials, dir, ferrors.FileSystemError,
			"partials directory unreadable", err)
	}
	bs.partials = set
	bs.report.Partials = len(set.Files())
	bs.log.Info("Partials loaded", logfields.Count(bs.report.Partials))
	return nil
}

func stageComposeTemplates(_ context.Context, bs *buildState) error {
	dir := bs.cfg.TemplatesPath()
	res, err := templates.Load(dir, bs.partials)
	if err != nil {
		return fatal(bs, IssueTemplatesUnreadable, StageComposeTemplates, dir, ferrors.TemplateError,
			"templates directory unreadable", err)
	}

	for _, w := range res.Warnings {
		code := IssueTemplateUnreadable
		if serrors.KindOf(w.Err) == serrors.KindUnresolvedPartial {
			code = IssueUnresolvedPartial
		}
		bs.warn(code, StageComposeTemplates, w.Path, w.Err)
	}
	bs.templates = res.Set
	bs.report.Templates = len(res.Set.Templates())
	bs.log.Info("Templates composed", logfields.Count(bs.report.Templates))
	return nil
}

func stageCopyAssets(_ context.Context, bs *buildState) error {
	src, dest := bs.cfg.Source, bs.cfg.Destination
	if copytree.SamePath(src, dest) {
		bs.log.Info("Source and destination are the same directory, skipping asset copy", logfields.Path(src))
		bs.skipped = true
		return nil
	}

	rule := copytree.ExcludeRule{
		Destination: dest,
		Reserved:    bs.cfg.Reserved(),
		Patterns:    bs.cfg.Exclude,
		Artifacts:   bs.cfg.Artifacts(),
	}
	stats, err := copytree.Copy(src, dest, rule)
	bs.report.AssetsCopied = stats.Files
	bs.report.AssetBytes = stats.Bytes
	bs.recorder.AddAssetsCopied(stats.Files, stats.Bytes)

	for _, failure := range flatten(err) {
		path := ""
		var ioErr *serrors.IOFailure
		if errors.As(failure, &ioErr) {
			path = ioErr.Path
		}
		bs.warn(IssueAssetCopy, StageCopyAssets, path, failure)
	}
	bs.log.Info("Assets copied", logfields.Count(stats.Files), logfields.Path(src), logfields.Output(dest))
	return nil
}

func stageRenderPages(ctx context.Context, bs *buildState) error {
	dir := bs.cfg.PagesPath()
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		bs.log.Warn("Pages directory not found, nothing to render", logfields.Path(dir))
		bs.warn(IssuePagesMissing, StageRenderPages, dir, serrors.NewIOFailure("stat pages directory", dir, err))
		return nil
	}

	// WalkDir visits entries in lexical order.
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			bs.warn(IssuePageSkipped, StageRenderPages, path, serrors.NewIOFailure("walk pages", path, walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		// Follow symlinks; anything that is not a regular file in the end is ignored.
		info, err := os.Stat(path)
		if err != nil {
			bs.skipPage(path, serrors.NewIOFailure("stat page", path, err))
			return nil
		}
		if !info.Mode().IsRegular() {
			bs.log.Debug("Skipping non-regular page entry", logfields.Path(path))
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			bs.skipPage(path, err)
			return nil
		}
		bs.renderPage(path, filepath.Join(bs.cfg.Destination, rel))
		return nil
	})
	if err != nil {
		return err
	}
	bs.log.Info("Pages rendered", logfields.Count(bs.report.PagesRendered))
	return nil
}

// renderPage loads, renders and writes one page. Failures skip the page.
func (bs *buildState) renderPage(src, out string) {
	pg, err := page.Load(src, bs.converter)
	if err != nil {
		bs.skipPage(src, err)
		return
	}

	tmpl, ok := bs.templates.Lookup(pg.TemplateName)
	if !ok {
		bs.skipPage(src, &serrors.TemplateNotFound{Name: pg.TemplateName, Page: src})
		return
	}

	res := render.Render(tmpl.Composed, pg.Metadata)
	for _, key := range res.Unresolved {
		bs.log.Warn("Placeholder has no value", logfields.Key(key), logfields.Page(src))
		bs.warn(IssueUnresolvedPlaceholder, StageRenderPages, src, &serrors.UnresolvedPlaceholder{Key: key, Page: src})
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		bs.skipPage(src, serrors.NewIOFailure("create directory", filepath.Dir(out), err))
		return
	}
	// #nosec G306 -- rendered pages are public site content
	if err := os.WriteFile(out, []byte(res.Text), 0o644); err != nil {
		bs.skipPage(src, serrors.NewIOFailure("write page", out, err))
		return
	}

	bs.report.PagesRendered++
	bs.report.Pages = append(bs.report.Pages, PageResult{
		Source:      src,
		Output:      out,
		Template:    tmpl.Name,
		Fingerprint: pg.Fingerprint,
		Unresolved:  res.Unresolved,
	})
	bs.recorder.IncPageRendered()
	bs.log.Debug("Page rendered", logfields.Page(src), logfields.Template(tmpl.Name), logfields.Output(out))
}

func (bs *buildState) skipPage(path string, err error) {
	kind := serrors.KindOf(err)
	bs.log.Warn("Skipping page", logfields.Page(path), logfields.Kind(string(kind)), logfields.Error(err))
	bs.report.PagesSkipped++
	bs.recorder.IncPageSkipped(string(kind))
	bs.warn(IssuePageSkipped, StageRenderPages, path, err)
}

// flatten unpacks an errors.Join result.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
