package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/simplesite/internal/config"
	"git.home.luguber.info/inful/simplesite/internal/metrics"
	"git.home.luguber.info/inful/simplesite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides output_path)"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file in node_exporter textfile format (overrides metrics.textfile)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.OutputPath = &b.Output
	}
	if b.MetricsFile != "" {
		cfg.Metrics.Textfile = b.MetricsFile
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, g, cfg, root.Verbose)
}

// RunBuild builds the site described by cfg and exports metrics if a
// textfile is configured. Metrics are written for failed builds too.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config, verbose bool) (err error) {
	out := g.stdout()
	// Provide friendly user-facing messages on stdout.
	_, _ = fmt.Fprintln(out, "Starting simplesite build")

	logger := config.NewLogger(os.Stderr, cfg.Logging, verbose)
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	if cfg.Metrics.Textfile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); werr != nil {
				logger.Warn("Failed to write metrics textfile", slog.String("path", cfg.Metrics.Textfile), slog.Any("error", werr))
			}
		}()
	}

	builder := site.New(cfg.Site(), site.WithLogger(logger), site.WithRecorder(recorder))
	report, err := builder.Build(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Build failed")
		return err
	}

	_, _ = fmt.Fprintf(out, "Built %d pages and %d static files into %s in %s\n",
		report.Pages, report.Mirrored+report.Overrides, cfg.OutputDir(), report.Duration.Round(time.Millisecond))
	return nil
}
