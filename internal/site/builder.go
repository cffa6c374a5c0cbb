package site

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/extassets/internal/assets"
	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
	"git.home.luguber.info/inful/extassets/internal/metrics"
	"git.home.luguber.info/inful/extassets/internal/plugin"
)

// Report summarizes one build.
type Report struct {
	RunID     string
	Pages     int // markdown pages rendered
	Files     int // other docs files copied verbatim
	Published int // external assets published by the plugin
	Start     time.Time
	End       time.Time
}

// Duration returns the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Builder renders a docs directory into a site, calling the plugin hooks in
// host order. A Builder is not safe for concurrent use; the preview server
// serializes calls to Build.
type Builder struct {
	docsDir   string
	outputDir string
	title     string
	clean     bool

	ext  *plugin.ExternalAssets
	pctx *plugin.Context

	md       goldmark.Markdown
	fs       afero.Fs
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithFs sets the filesystem used to read docs and write the site.
func WithFs(fs afero.Fs) Option { return func(b *Builder) { b.fs = fs } }

// WithRecorder sets the metrics recorder for build outcomes.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// NewBuilder validates the site layout and configures the plugin against it.
func NewBuilder(cfg config.SiteConfig, ext *plugin.ExternalAssets, opts ...Option) (*Builder, error) {
	b := &Builder{
		title:    cfg.Title,
		clean:    cfg.Clean,
		ext:      ext,
		md:       newMarkdown(),
		fs:       afero.NewOsFs(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	docs, err := filepath.Abs(cfg.DocsDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve docs directory").
			Fatal().WithContext("path", cfg.DocsDir).Build()
	}
	if st, statErr := b.fs.Stat(docs); statErr != nil || !st.IsDir() {
		return nil, errors.ConfigError("docs directory not found or not a directory").
			WithContext("path", docs).Build()
	}
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve output directory").
			Fatal().WithContext("path", cfg.OutputDir).Build()
	}
	if out == docs || assets.Within(docs, out) || assets.Within(out, docs) {
		return nil, errors.ConfigError("output directory overlaps docs directory").
			WithContext("path", out).
			WithContext("docs_dir", docs).Build()
	}
	b.docsDir, b.outputDir = docs, out

	if b.pctx, err = ext.OnConfig(b); err != nil {
		return nil, err
	}
	return b, nil
}

// SiteDir implements plugin.BuildConfig.
func (b *Builder) SiteDir() string { return b.outputDir }

// DocsDir returns the absolute docs directory.
func (b *Builder) DocsDir() string { return b.docsDir }

// PluginContext returns the plugin's build context.
func (b *Builder) PluginContext() *plugin.Context { return b.pctx }

// Watch registers the docs directory and, through the plugin's serve hook,
// every mapped source directory with reg.
func (b *Builder) Watch(reg plugin.WatchRegistrar) error {
	if err := reg.Watch(b.docsDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch docs directory").
			WithContext("path", b.docsDir).Build()
	}
	b.ext.OnServe(b.pctx, reg)
	return nil
}

// Build runs one full build and records its duration and outcome.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{Start: time.Now()}
	err := b.build(ctx, report)
	report.End = time.Now()

	b.recorder.ObserveBuildDuration(report.Duration())
	if err != nil {
		b.recorder.IncBuildOutcome(metrics.BuildFailed)
		return nil, err
	}
	b.recorder.IncBuildOutcome(metrics.BuildSuccess)
	b.logger.Info("Site build completed",
		logfields.RunID(report.RunID),
		slog.Int("pages", report.Pages),
		slog.Int("files", report.Files),
		slog.Int("published", report.Published),
		logfields.Elapsed(report.Duration()))
	return report, nil
}

func (b *Builder) build(ctx context.Context, report *Report) error {
	if b.clean {
		if err := b.fs.RemoveAll(b.outputDir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
				Fatal().WithContext("path", b.outputDir).Build()
		}
	}
	if err := b.fs.MkdirAll(b.outputDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			Fatal().WithContext("path", b.outputDir).Build()
	}

	if err := b.ext.OnPreBuild(b.pctx); err != nil {
		return err
	}
	report.RunID = b.pctx.BuildID
	b.logger.Info("Starting site build", logfields.RunID(report.RunID), logfields.Path(b.docsDir))

	files, err := Discover(b.fs, b.docsDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if f.IsMarkdown {
			if err := b.renderPage(f); err != nil {
				return err
			}
			report.Pages++
			continue
		}
		if err := b.copyFile(f); err != nil {
			return err
		}
		report.Files++
	}
	report.Published = b.pctx.CopiedCount()
	return nil
}

func (b *Builder) renderPage(f File) error {
	source, err := afero.ReadFile(b.fs, f.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read page").
			Fatal().WithContext("path", f.Path).Build()
	}
	fragment, err := renderMarkdown(b.md, source)
	if err != nil {
		return errors.RenderError("failed to render markdown").WithCause(err).WithContext("path", f.Path).Build()
	}

	fragment, err = b.ext.OnPageContent(b.pctx, fragment, sourcePage(f.Path))
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(f.RelativePath), filepath.Ext(f.RelativePath))
	out, err := wrapPage(b.title, name, fragment)
	if err != nil {
		return errors.RenderError("failed to apply page layout").WithCause(err).WithContext("path", f.Path).Build()
	}
	dst := filepath.Join(b.outputDir, f.OutputPath())
	if err := b.write(dst, out); err != nil {
		return err
	}
	b.logger.Debug("Rendered page", logfields.Page(f.RelativePath), logfields.Destination(dst))
	return nil
}

func (b *Builder) copyFile(f File) error {
	data, err := afero.ReadFile(b.fs, f.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read docs file").
			Fatal().WithContext("path", f.Path).Build()
	}
	return b.write(filepath.Join(b.outputDir, f.OutputPath()), data)
}

func (b *Builder) write(dst string, data []byte) error {
	if err := b.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
			Fatal().WithContext("destination", dst).Build()
	}
	if err := afero.WriteFile(b.fs, dst, data, 0o644); err != nil { //nolint:gosec // public HTML output
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
			Fatal().WithContext("destination", dst).Build()
	}
	return nil
}

// sourcePage adapts a page's source path to plugin.Page.
type sourcePage string

func (p sourcePage) SourcePath() string { return string(p) }

var (
	_ plugin.BuildConfig = (*Builder)(nil)
	_ plugin.Page        = sourcePage("")
)
