package site

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/lava/internal/config"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/markdown"
	"git.home.luguber.info/inful/lava/internal/metrics"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
	helpers "git.home.luguber.info/inful/lava/internal/testutil/testutils"
	"github.com/stretchr/testify/require"
)

// paragraph is a predictable stand-in for goldmark.
var paragraph = markdown.ConverterFunc(func(text string) string {
	return "<p>" + strings.TrimSpace(text) + "</p>"
})

func sampleSite(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/default.html":         "<html>{{p header}}<main>{{= content}}</main></html>",
		"_templates/partials/header.html": "<h1>{{= title}}</h1>",
		"_pages/index.html":               "---\ntemplate: default.html\ntitle: Home\n---\nHello",
		"_pages/blog/post.html":           "---\ntemplate: default\ntitle: Post\n---\nBody",
		"_pages/broken.html":              "---\ntemplate: missing.html\ntitle: Broken\n---\nx",
		"_pages/nofm.html":                "no dashes here",
		"assets/img.png":                  "PNG",
		".git/HEAD":                       "ref: refs/heads/main",
	})
	return src
}

func newTestBuilder(src, dst string) *Builder {
	cfg := config.Default()
	cfg.Source = src
	cfg.Destination = dst
	return NewBuilder(cfg).WithConverter(paragraph)
}

func issueKinds(r *Report, code IssueCode) []serrors.Kind {
	var kinds []serrors.Kind
	for _, issue := range r.Issues {
		if issue.Code == code {
			kinds = append(kinds, issue.Kind)
		}
	}
	return kinds
}

func TestBuild_RendersPagesAndCopiesAssets(t *testing.T) {
	src := sampleSite(t)
	dst := filepath.Join(t.TempDir(), "public")

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)

	require.Equal(t, map[string]string{
		"index.html":     "<html><h1>Home</h1><main><p>Hello</p></main></html>",
		"blog/":          "",
		"blog/post.html": "<html><h1>Post</h1><main><p>Body</p></main></html>",
		"assets/":        "",
		"assets/img.png": "PNG",
	}, helpers.ReadTree(t, dst))

	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Equal(t, 2, report.PagesRendered)
	require.Equal(t, 2, report.PagesSkipped)
	require.Equal(t, 1, report.AssetsCopied)
	require.Equal(t, 1, report.Templates)
	require.Equal(t, 1, report.Partials)
	require.Equal(t, []serrors.Kind{serrors.KindTemplateNotFound, serrors.KindMissingFrontMatter},
		issueKinds(report, IssuePageSkipped))

	require.Len(t, report.Pages, 2)
	require.Equal(t, filepath.Join(src, "_pages", "blog", "post.html"), report.Pages[0].Source)
	require.Equal(t, "default.html", report.Pages[0].Template)
	require.NotEmpty(t, report.Pages[0].Fingerprint)
	for _, stage := range []StageName{StagePrepareOutput, StageLoadPartials, StageComposeTemplates, StageCopyAssets, StageRenderPages} {
		require.Contains(t, report.StageDurations, stage)
	}
}

func TestBuild_UnknownTemplateDoesNotStopOtherPages(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/t.html": "[{{= content}}]",
		"_pages/a.html":     "---\ntemplate: t.html\n---\na",
		"_pages/b.html":     "---\ntemplate: nope.html\n---\nb",
		"_pages/c.html":     "---\ntemplate: t.html\n---\nc",
	})

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	helpers.NewFileAssertions(t, dst).
		AssertFileEquals("a.html", "[<p>a</p>]").
		AssertNotExists("b.html").
		AssertFileEquals("c.html", "[<p>c</p>]")
	require.Equal(t, 1, report.PagesSkipped)
}

func TestBuild_UnresolvedPlaceholderStaysVerbatim(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/t.html": "Hi {{= name}}!",
		"_pages/rosa.html":  "---\ntemplate: t.html\nname: Rosa\n---\n",
		"_pages/anon.html":  "---\ntemplate: t.html\n---\n",
	})

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	helpers.NewFileAssertions(t, dst).
		AssertFileEquals("rosa.html", "Hi Rosa!").
		AssertFileEquals("anon.html", "Hi {{= name}}!")

	require.Equal(t, []serrors.Kind{serrors.KindUnresolvedPlaceholder}, issueKinds(report, IssueUnresolvedPlaceholder))
	require.Equal(t, 2, report.PagesRendered)
	require.Equal(t, OutcomeWarning, report.Outcome)
}

func TestBuild_MissingPartialsDirectory(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/t.html": "{{p header}}|{{= content}}",
		"_pages/p.html":     "---\ntemplate: t\n---\nx",
	})

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	helpers.NewFileAssertions(t, dst).AssertFileEquals("p.html", "{{p header}}|<p>x</p>")
	require.Len(t, issueKinds(report, IssuePartialsMissing), 1)
	require.Equal(t, []serrors.Kind{serrors.KindUnresolvedPartial}, issueKinds(report, IssueUnresolvedPartial))
}

func TestBuild_MissingPagesDirectoryIsWarning(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	helpers.WriteTree(t, src, map[string]string{"_templates/": "", "style.css": "a{}"})

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, issueKinds(report, IssuePagesMissing), 1)
	helpers.NewFileAssertions(t, dst).AssertFileEquals("style.css", "a{}")
}

func TestBuild_CleanSiteSucceeds(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/t.html":          "{{p nav}}{{= content}}",
		"_templates/partials/nav.md": "<nav/>",
		"_pages/p.html":              "---\ntemplate: t.html\n---\nx",
	})

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Empty(t, report.Issues)
	helpers.NewFileAssertions(t, dst).AssertFileEquals("p.html", "<nav/><p>x</p>")
}

func TestBuild_DestinationInsideSource(t *testing.T) {
	src := sampleSite(t)
	dst := filepath.Join(src, "_site")
	helpers.WriteTree(t, src, map[string]string{"lava.yaml": "destination: _site\n"})

	_, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	first := helpers.ReadTree(t, dst)

	_, err = newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, first, helpers.ReadTree(t, dst), "rebuilding must not copy the output into itself")
	require.NotContains(t, first, "_site/")
	require.NotContains(t, first, "lava.yaml")
}

func TestBuild_SameSourceAndDestinationSkipsCopy(t *testing.T) {
	src := t.TempDir()
	helpers.WriteTree(t, src, map[string]string{
		"_templates/t.html": "{{= content}}",
		"_pages/out.html":   "---\ntemplate: t.html\n---\nx",
	})
	rec := newFakeRecorder()

	report, err := newTestBuilder(src, src).WithRecorder(rec).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, 0, report.AssetsCopied)
	require.Equal(t, metrics.ResultSkipped, rec.stageResults[string(StageCopyAssets)])
	helpers.NewFileAssertions(t, src).AssertFileEquals("out.html", "<p>x</p>")
}

func TestBuild_FatalSetupErrors(t *testing.T) {
	t.Run("templates directory missing", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		report, err := newTestBuilder(src, dst).Build(t.Context())
		require.Error(t, err)
		require.Equal(t, ferrors.CategoryTemplate, ferrors.GetCategory(err))
		require.Equal(t, ferrors.SeverityFatal, ferrors.GetSeverity(err))
		require.ErrorIs(t, err, serrors.ErrIOFailure)
		require.Equal(t, OutcomeFailed, report.Outcome)
		require.NotContains(t, report.StageDurations, StageRenderPages)
	})

	t.Run("destination not creatable", func(t *testing.T) {
		src := sampleSite(t)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		report, err := newTestBuilder(src, filepath.Join(blocker, "out")).Build(t.Context())
		require.Error(t, err)
		require.Equal(t, ferrors.CategoryFileSystem, ferrors.GetCategory(err))
		require.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
		require.Equal(t, OutcomeFailed, report.Outcome)
		require.Equal(t, IssueOutputUnavailable, report.Issues[0].Code)
	})
}

func TestBuild_Canceled(t *testing.T) {
	src := sampleSite(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := newTestBuilder(src, t.TempDir()).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	require.Equal(t, OutcomeCanceled, report.Outcome)
	require.Equal(t, 0, report.PagesRendered)
}

func TestBuild_RecordsMetrics(t *testing.T) {
	src := sampleSite(t)
	rec := newFakeRecorder()

	_, err := newTestBuilder(src, t.TempDir()).WithRecorder(rec).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, rec.rendered)
	require.Equal(t, map[string]int{"template_not_found": 1, "missing_front_matter": 1}, rec.skipped)
	require.Equal(t, 1, rec.assets)
	require.Equal(t, metrics.BuildOutcomeWarning, rec.outcome)
	require.Equal(t, metrics.ResultWarning, rec.stageResults[string(StageRenderPages)])
	require.Equal(t, metrics.ResultSuccess, rec.stageResults[string(StagePrepareOutput)])
	require.Len(t, rec.stageDurations, 5)
}

type fakeRecorder struct {
	stageDurations map[string]time.Duration
	stageResults   map[string]metrics.ResultLabel
	outcome        metrics.BuildOutcomeLabel
	rendered       int
	skipped        map[string]int
	assets         int
	issues         map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		stageDurations: map[string]time.Duration{},
		stageResults:   map[string]metrics.ResultLabel{},
		skipped:        map[string]int{},
		issues:         map[string]int{},
	}
}

func (f *fakeRecorder) ObserveStageDuration(stage string, d time.Duration) {
	f.stageDurations[stage] = d
}
func (f *fakeRecorder) ObserveBuildDuration(time.Duration) {}
func (f *fakeRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	f.stageResults[stage] = result
}
func (f *fakeRecorder) IncBuildOutcome(outcome metrics.BuildOutcomeLabel) { f.outcome = outcome }
func (f *fakeRecorder) IncPageRendered()                                  { f.rendered++ }
func (f *fakeRecorder) IncPageSkipped(kind string)                        { f.skipped[kind]++ }
func (f *fakeRecorder) AddAssetsCopied(files int, _ int64)                { f.assets += files }
func (f *fakeRecorder) IncIssue(kind string)                              { f.issues[kind]++ }

func TestBuild_UnreadableTemplateSkipsOnlyItsPages(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	src := sampleSite(t)
	locked := filepath.Join(src, "_templates", "locked.html")
	require.NoError(t, os.WriteFile(locked, []byte("{{= content}}"), 0o600))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o600) })
	helpers.WriteTree(t, src, map[string]string{
		"_pages/uses-locked.html": "---\ntemplate: locked.html\n---\nx",
	})
	dst := t.TempDir()

	report, err := newTestBuilder(src, dst).Build(t.Context())
	require.NoError(t, err)
	require.Equal(t, []serrors.Kind{serrors.KindIOFailure}, issueKinds(report, IssueTemplateUnreadable))
	require.Equal(t, 1, report.Templates)

	helpers.NewFileAssertions(t, dst).
		AssertFileExists("index.html").
		AssertNotExists("uses-locked.html")
}
