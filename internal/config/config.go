// Package config loads the site description file: where templates, output
// and static assets live, which pages to render and which static files to
// redirect.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/simplesite/internal/errors"
	"git.home.luguber.info/inful/simplesite/internal/page"
	"git.home.luguber.info/inful/simplesite/internal/site"
	"git.home.luguber.info/inful/simplesite/internal/static"
)

// Defaults applied when a path key is absent from the file. An explicit empty
// string is kept and means the working directory.
const (
	DefaultConfigFile   = "simplesite.yaml"
	DefaultTemplatePath = "templates/"
	DefaultOutputPath   = "output/"
	DefaultStaticRoot   = "static/"
)

// Config represents the site configuration file
type Config struct {
	TemplatePath     *string           `yaml:"template_path,omitempty"`
	OutputPath       *string           `yaml:"output_path,omitempty"`
	StaticRoot       *string           `yaml:"static_root,omitempty"`
	StaticOutputRoot string            `yaml:"static_output_root,omitempty"` // defaults to static_root
	Partials         []string          `yaml:"partials,omitempty"`
	StaticMap        map[string]string `yaml:"static_map,omitempty"`
	Pages            []Page            `yaml:"pages,omitempty"`
	Logging          LoggingConfig     `yaml:"logging,omitempty"`
	Metrics          MetricsConfig     `yaml:"metrics,omitempty"`
}

// Page represents one page entry
type Page struct {
	Template       string         `yaml:"template"`
	Context        map[string]any `yaml:"context,omitempty"`
	Pretty         bool           `yaml:"pretty,omitempty"` // write <name>/index.html
	OutputDir      string         `yaml:"output_dir,omitempty"`
	OutputFilename string         `yaml:"output_filename,omitempty"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig represents metrics export configuration
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // node_exporter textfile path; empty disables export
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// A broken .env file should not block the build.
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not loaded: %v\n", err)
	}

	// #nosec G304 -- configPath is supplied by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, serrors.ConfigNotFound(configPath)
		}
		return nil, serrors.ConfigInvalid(configPath, err)
	}

	return Parse(configPath, data)
}

// Parse decodes configuration data, expanding ${VAR} references from the
// environment first. name is used in error messages only.
func Parse(name string, data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, serrors.ConfigInvalid(name, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TemplatePath == nil {
		c.TemplatePath = ptr(DefaultTemplatePath)
	}
	if c.OutputPath == nil {
		c.OutputPath = ptr(DefaultOutputPath)
	}
	if c.StaticRoot == nil {
		c.StaticRoot = ptr(DefaultStaticRoot)
	}
	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}

// Validate checks page entries for missing templates, conflicting options and
// pages that would overwrite each other.
func (c *Config) Validate() error {
	outputs := make(map[string]int, len(c.Pages))
	for i, p := range c.Pages {
		field := fmt.Sprintf("pages[%d]", i)
		if strings.TrimSpace(p.Template) == "" {
			return serrors.ValidationFailed(field+".template", "required")
		}
		if p.Pretty && (p.OutputDir != "" || p.OutputFilename != "") {
			return serrors.ValidationFailed(field, "pretty pages derive their output path; remove output_dir and output_filename")
		}
		out := p.Descriptor().Output()
		if prev, dup := outputs[out]; dup {
			return serrors.ValidationFailed(field, fmt.Sprintf("output %q already written by pages[%d]", out, prev))
		}
		outputs[out] = i
	}
	for src, dst := range c.StaticMap {
		if src == "" || dst == "" {
			return serrors.ValidationFailed("static_map", "source and destination must be non-empty")
		}
	}
	return nil
}

// Descriptor converts the entry into a page descriptor.
func (p Page) Descriptor() page.Descriptor {
	if p.Pretty {
		return page.NewPretty(p.Template, p.Context)
	}
	return page.New(p.Template, p.Context,
		page.WithOutputDir(p.OutputDir),
		page.WithOutputFilename(p.OutputFilename))
}

// TemplateDir returns the template root.
func (c *Config) TemplateDir() string { return deref(c.TemplatePath, DefaultTemplatePath) }

// OutputDir returns the output root.
func (c *Config) OutputDir() string { return deref(c.OutputPath, DefaultOutputPath) }

// StaticDir returns the static source root.
func (c *Config) StaticDir() string { return deref(c.StaticRoot, DefaultStaticRoot) }

// Site converts the file into a build configuration.
func (c *Config) Site() site.Config {
	pages := make([]page.Descriptor, 0, len(c.Pages))
	for _, p := range c.Pages {
		pages = append(pages, p.Descriptor())
	}
	return site.Config{
		TemplateRoot:     c.TemplateDir(),
		OutputRoot:       c.OutputDir(),
		StaticSourceRoot: c.StaticDir(),
		StaticOutputRoot: c.StaticOutputRoot,
		Partials:         c.Partials,
		Pages:            pages,
		StaticMap:        static.Map(c.StaticMap),
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return serrors.New(serrors.CategoryConfig, serrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath)
	}

	example := Config{
		TemplatePath: ptr(DefaultTemplatePath),
		OutputPath:   ptr(DefaultOutputPath),
		StaticRoot:   ptr(DefaultStaticRoot),
		Partials:     []string{"_partials/*.html"},
		StaticMap:    map[string]string{"site.css": "css/main.css"},
		Pages: []Page{
			{Template: "index.html", Context: map[string]any{"title": "Home"}},
			{Template: "about.html", Pretty: true, Context: map[string]any{"title": "About"}},
			{Template: "feed.xml", OutputDir: "feeds/", OutputFilename: "all.xml"},
		},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return serrors.InternalError("marshal example configuration", err)
	}

	// #nosec G306 -- the configuration holds no secrets.
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return serrors.FileSystem("write configuration", err).WithContext("path", configPath)
	}
	return nil
}

func ptr(s string) *string { return &s }

func deref(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
