package main

import (
	"log/slog"

	"git.home.luguber.info/inful/lava/cmd/lava/commands"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("lava"),
		kong.Description("Render Markdown pages through templates and partials into a static site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
