// Package site composes page rendering and static synchronization into a
// single build of the whole site.
package site

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/simplesite/internal/logfields"
	"git.home.luguber.info/inful/simplesite/internal/metrics"
	"git.home.luguber.info/inful/simplesite/internal/page"
	"git.home.luguber.info/inful/simplesite/internal/render"
	"git.home.luguber.info/inful/simplesite/internal/static"
)

// Stage names reported to logs and metrics.
const (
	StageRender = "render"
	StageStatic = "static"
)

// Config is everything a build needs. An empty path field is valid: it is
// joined as a no-op, so the path resolves against the working directory.
type Config struct {
	// TemplateRoot is the directory templates are loaded from.
	TemplateRoot string
	// OutputRoot is the directory pages and static files are written under.
	OutputRoot string
	// StaticSourceRoot is the directory of static assets to mirror.
	StaticSourceRoot string
	// StaticOutputRoot is where static assets land, relative to OutputRoot.
	// Empty means the same relative path as StaticSourceRoot.
	StaticOutputRoot string
	// Partials are glob patterns of shared templates parsed with each page.
	Partials []string
	// Pages are rendered in order.
	Pages []page.Descriptor
	// StaticMap redirects individual static files; see static.Map.
	StaticMap static.Map
}

// Report describes a finished build.
type Report struct {
	BuildID   string
	Pages     int
	Mirrored  int
	Overrides int
	Duration  time.Duration
}

// Builder renders all pages and then synchronizes static assets.
type Builder struct {
	cfg      Config
	logger   *slog.Logger
	recorder metrics.Recorder
	funcs    map[string]any
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder; the default records nothing.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithFuncs registers template functions for every page.
func WithFuncs(funcs map[string]any) Option {
	return func(b *Builder) { b.funcs = funcs }
}

// New returns a Builder for cfg.
func New(cfg Config, opts ...Option) *Builder {
	if cfg.StaticOutputRoot == "" {
		cfg.StaticOutputRoot = cfg.StaticSourceRoot
	}
	if cfg.StaticMap == nil {
		cfg.StaticMap = static.Map{}
	}
	b := &Builder{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the normalized configuration.
func (b *Builder) Config() Config { return b.cfg }

// StaticOutputDir is the directory static assets are synchronized into.
func (b *Builder) StaticOutputDir() string {
	return filepath.Join(b.cfg.OutputRoot, b.cfg.StaticOutputRoot)
}

// Build renders every page, then mirrors the static tree into
// StaticOutputDir. Any failure aborts the build and leaves whatever was
// already written in place.
func (b *Builder) Build(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{BuildID: uuid.NewString()}
	logger := b.logger.With(logfields.BuildID(report.BuildID))

	logger.Info("Starting site build",
		slog.String("templates", b.cfg.TemplateRoot),
		logfields.Output(b.cfg.OutputRoot),
		logfields.Pages(len(b.cfg.Pages)))

	err := b.runStage(ctx, logger, StageRender, func() error {
		r := render.New(b.cfg.TemplateRoot, b.cfg.OutputRoot,
			render.WithPartials(b.cfg.Partials...),
			render.WithFuncs(b.funcs),
			render.WithLogger(logger))
		n, err := r.Render(ctx, b.cfg.Pages)
		report.Pages = n
		b.recorder.AddPagesRendered(n)
		return err
	})
	if err == nil {
		err = b.runStage(ctx, logger, StageStatic, func() error {
			s := static.New(static.WithLogger(logger))
			res, err := s.Sync(ctx, b.cfg.StaticSourceRoot, b.StaticOutputDir(), b.cfg.StaticMap)
			report.Mirrored, report.Overrides = res.Mirrored, res.Overrides
			b.recorder.AddStaticFiles(metrics.StaticMirrored, res.Mirrored)
			b.recorder.AddStaticFiles(metrics.StaticOverride, res.Overrides)
			return err
		})
	}

	report.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(report.Duration)
	if err != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		logger.Error("Site build failed", logfields.Error(err))
		return report, err
	}

	b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	logger.Info("Site build completed",
		logfields.Pages(report.Pages),
		logfields.Files(report.Mirrored+report.Overrides),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, nil
}

func (b *Builder) runStage(ctx context.Context, logger *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	b.recorder.ObserveStageDuration(name, d)
	if err != nil {
		b.recorder.IncStageResult(name, metrics.ResultFatal)
		return err
	}
	b.recorder.IncStageResult(name, metrics.ResultSuccess)
	logger.Debug("Stage completed", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}
