package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/lava/internal/config"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Directory to scaffold the site in" default:"."`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	out := g.stdout()
	_, _ = fmt.Fprintf(out, "Initializing lava site in %s\n", i.Dir)
	written, err := Scaffold(i.Dir, i.Force)
	for _, path := range written {
		_, _ = fmt.Fprintf(out, "  created %s\n", path)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Run `lava build` to render the site into ./_site/")
	return nil
}

// Starter site content.
var (
	starterTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{= title}}</title>
  <link rel="stylesheet" href="/assets/style.css">
</head>
<body>
{{p header}}
<main>
{{= content}}
</main>
</body>
</html>
`
	starterHeader = `<header><a href="/">{{= title}}</a></header>
`
	starterStyle = `body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; }
`
	starterPageMeta = "template: default.html\ntitle: Hello, lava\n"
	starterPageBody = "# Hello\n\nThis page lives in `_pages/index.html`. Edit it and run `lava build`.\n"
)

type starterFile struct {
	rel  string
	data []byte
}

// Scaffold writes a minimal site into dir: a configuration file, a default
// template with a header partial, an index page and a stylesheet. Existing
// files are only replaced when force is set. It returns the files written.
func Scaffold(dir string, force bool) ([]string, error) {
	cfg := config.Default()
	files := []starterFile{
		{filepath.Join(cfg.TemplatesDir, "default.html"), []byte(starterTemplate)},
		{filepath.Join(cfg.TemplatesDir, cfg.PartialsDir, "header.html"), []byte(starterHeader)},
		{filepath.Join(cfg.PagesDir, "index.html"), frontmatter.Join([]byte(starterPageMeta), []byte(starterPageBody))},
		{filepath.Join("assets", "style.css"), []byte(starterStyle)},
	}

	if !force {
		rels := []string{config.FileName}
		for _, f := range files {
			rels = append(rels, f.rel)
		}
		for _, rel := range rels {
			path := filepath.Join(dir, rel)
			if _, err := os.Stat(path); err == nil {
				return nil, ferrors.ConfigError("site file already exists (use --force to overwrite)").
					WithContext("path", path).
					Build()
			}
		}
	}

	var written []string
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferrors.FileSystemError("failed to create site directory").
			WithCause(err).
			WithContext("path", dir).
			Fatal().
			Build()
	}
	cfgPath := filepath.Join(dir, config.FileName)
	if err := config.Init(cfgPath, force); err != nil {
		return written, err
	}
	written = append(written, cfgPath)

	for _, f := range files {
		path := filepath.Join(dir, f.rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, ferrors.FileSystemError("failed to create directory").
				WithCause(err).
				WithContext("path", filepath.Dir(path)).
				Fatal().
				Build()
		}
		// #nosec G306 -- scaffolded site sources are not secret
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return written, ferrors.FileSystemError("failed to write file").
				WithCause(err).
				WithContext("path", path).
				Fatal().
				Build()
		}
		written = append(written, path)
	}
	return written, nil
}
