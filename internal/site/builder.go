package site

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/lava/internal/config"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/logfields"
	"git.home.luguber.info/inful/lava/internal/markdown"
	"git.home.luguber.info/inful/lava/internal/metrics"
	"git.home.luguber.info/inful/lava/internal/partials"
	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
	"git.home.luguber.info/inful/lava/internal/templates"
	"github.com/google/uuid"
)

// Builder compiles a site described by a Config.
type Builder struct {
	cfg       *config.Config
	converter markdown.Converter
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewBuilder returns a Builder using goldmark configured from cfg, no metrics
// and the default logger.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg:       cfg,
		converter: markdown.New(cfg.Markdown.Options()),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
}

// WithConverter replaces the Markdown converter.
func (b *Builder) WithConverter(c markdown.Converter) *Builder {
	if c != nil {
		b.converter = c
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// buildState is shared by the stages of one build.
type buildState struct {
	cfg       *config.Config
	report    *Report
	log       *slog.Logger
	recorder  metrics.Recorder
	converter markdown.Converter
	partials  partials.Set
	templates templates.Set
	// warned is set by a stage that recorded a recoverable issue.
	warned bool
	// skipped is set by a stage that decided not to run.
	skipped bool
}

func (bs *buildState) warn(code IssueCode, stage StageName, path string, err error) {
	bs.warned = true
	bs.report.AddIssue(code, stage, SeverityWarning, path, err)
	bs.recorder.IncIssue(string(serrors.KindOf(err)))
}

// Build runs every stage. The returned report is never nil; the error is a
// fatal classified error when a stage aborted the build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	bs := &buildState{
		cfg:       b.cfg,
		report:    newReport(buildID, b.cfg.Source, b.cfg.Destination),
		log:       b.logger.With(logfields.BuildID(buildID)),
		recorder:  b.recorder,
		converter: b.converter,
	}

	bs.log.Info("Build started", logfields.Path(b.cfg.Source), logfields.Output(b.cfg.Destination))
	err := runStages(ctx, bs, []stageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageLoadPartials, stageLoadPartials},
		{StageComposeTemplates, stageComposeTemplates},
		{StageCopyAssets, stageCopyAssets},
		{StageRenderPages, stageRenderPages},
	})

	bs.report.finish()
	b.recorder.ObserveBuildDuration(bs.report.Duration())
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(bs.report.Outcome))

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	bs.log.Log(ctx, level, "Build finished",
		slog.String("outcome", string(bs.report.Outcome)),
		logfields.Count(bs.report.PagesRendered),
		logfields.DurationMS(float64(bs.report.Duration())/float64(time.Millisecond)))
	return bs.report, err
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error or on cancellation.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return cancelBuild(bs, st.Name, err)
		}

		bs.warned, bs.skipped = false, false
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.Name] = dur
		bs.recorder.ObserveStageDuration(string(st.Name), dur)
		bs.log.Debug("Stage complete", logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur)/float64(time.Millisecond)))

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelBuild(bs, st.Name, ctxErr)
			}
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			return err
		}

		switch {
		case bs.skipped:
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultSkipped)
		case bs.warned:
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultWarning)
		default:
			bs.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		}
	}
	return nil
}

func cancelBuild(bs *buildState, stage StageName, cause error) error {
	bs.report.AddIssue(IssueCanceled, stage, SeverityError, "", cause)
	bs.recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	bs.log.Warn("Build canceled", logfields.Stage(string(stage)))
	return ferrors.BuildError("build canceled").
		WithCause(cause).
		WithContext("stage", string(stage)).
		Build()
}

// fatal records an aborting issue and returns the classified error for it.
func fatal(bs *buildState, code IssueCode, stage StageName, path string, newErr func(string) *ferrors.ErrorBuilder, message string, err error) error {
	bs.report.AddIssue(code, stage, SeverityError, path, err)
	bs.log.Error(message, logfields.Stage(string(stage)), logfields.Path(path), logfields.Error(err))
	return newErr(message).
		WithCause(err).
		WithContext("stage", string(stage)).
		WithContext("path", path).
		Fatal().
		Build()
}
