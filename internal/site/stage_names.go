package site

import "context"

// StageName identifies a build stage.
type StageName string

// Build stages, in execution order.
const (
	StagePrepareOutput    StageName = "prepare_output"
	StageLoadPartials     StageName = "load_partials"
	StageComposeTemplates StageName = "compose_templates"
	StageCopyAssets       StageName = "copy_assets"
	StageRenderPages      StageName = "render_pages"
)

// stageFunc runs one stage. A returned error aborts the build.
type stageFunc func(ctx context.Context, bs *buildState) error

type stageDef struct {
	Name StageName
	Fn   stageFunc
}
