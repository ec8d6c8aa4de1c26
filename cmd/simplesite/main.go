package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/simplesite/cmd/simplesite/commands"
	serrors "git.home.luguber.info/inful/simplesite/internal/errors"
	"git.home.luguber.info/inful/simplesite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("simplesite"),
		kong.Description("Render page templates and static assets into a static site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(&commands.Global{}, cli); err != nil {
		serrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
