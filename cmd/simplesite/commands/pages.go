package commands

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"git.home.luguber.info/inful/simplesite/internal/config"
	"git.home.luguber.info/inful/simplesite/internal/site"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct{}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	b := site.New(cfg.Site())
	sc := b.Config()

	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TEMPLATE\tOUTPUT")
	for _, d := range sc.Pages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", d.Template(), filepath.Join(sc.OutputRoot, filepath.FromSlash(d.Output())))
	}
	for _, src := range slices.Sorted(maps.Keys(sc.StaticMap)) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n",
			filepath.Join(sc.StaticSourceRoot, src),
			filepath.Join(b.StaticOutputDir(), filepath.FromSlash(sc.StaticMap[src])))
	}
	_, _ = fmt.Fprintf(tw, "%s\t%s\n", sc.StaticSourceRoot, b.StaticOutputDir())
	return tw.Flush()
}
