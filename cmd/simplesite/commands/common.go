package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/simplesite/internal/config"
)

// Global carries process-wide state shared with subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// stdout returns the writer for user-facing messages.
func (g *Global) stdout() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Site configuration file" default:"simplesite.yaml" env:"SIMPLESITE_CONFIG" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"1" help:"Render pages and copy static assets into the output directory"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
	Pages PagesCmd `cmd:"" help:"List each page's template and output path without building"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(config.NewLogger(os.Stderr, config.LoggingConfig{}, c.Verbose))
	return nil
}
