// Package plugin wires the asset publisher and rewriter into a static-site
// build through four host hooks: OnConfig, OnPreBuild, OnPageContent and
// OnServe.
package plugin

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/extassets/internal/assets"
	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
	"git.home.luguber.info/inful/extassets/internal/metrics"
	"git.home.luguber.info/inful/extassets/internal/version"
)

// Metadata describes the plugin.
type Metadata struct {
	Name        string
	Version     string
	Description string
}

// ExternalAssets is the lifecycle controller. It holds only construction-time
// dependencies; all build state lives in the Context returned by OnConfig.
type ExternalAssets struct {
	mappings []config.Mapping
	fs       afero.Fs
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures ExternalAssets.
type Option func(*ExternalAssets)

// WithFs sets the filesystem used to copy assets.
func WithFs(fs afero.Fs) Option { return func(p *ExternalAssets) { p.fs = fs } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(p *ExternalAssets) { p.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *ExternalAssets) { p.logger = l } }

// New creates the plugin for the given mapping configurations.
func New(mappings []config.Mapping, opts ...Option) *ExternalAssets {
	p := &ExternalAssets{
		mappings: mappings,
		fs:       afero.NewOsFs(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metadata returns the plugin's metadata.
func (p *ExternalAssets) Metadata() Metadata {
	return Metadata{
		Name:        "external-assets",
		Version:     version.Version,
		Description: "Copies externally stored assets into the site and rewrites references to them",
	}
}

// OnConfig validates every mapping against the host's build configuration
// and returns the build context. A missing source directory fails the build.
func (p *ExternalAssets) OnConfig(build BuildConfig) (*Context, error) {
	if len(p.mappings) == 0 {
		return nil, errors.ConfigError("no asset mappings configured").Build()
	}

	ctx := &Context{SiteDir: build.SiteDir(), logger: p.logger}
	destRoots := make(map[string]int, len(p.mappings))
	for i, mc := range p.mappings {
		m, err := assets.NewMapping(mc, build.SiteDir())
		if err != nil {
			return nil, err
		}
		if prev, dup := destRoots[m.DestRoot]; dup {
			return nil, errors.ConfigError("mappings share a destination root").
				WithContext("destination", m.DestRoot).
				WithContext("mappings", []int{prev, i}).Build()
		}
		destRoots[m.DestRoot] = i

		ctx.Mappings = append(ctx.Mappings, m)
		ctx.publishers = append(ctx.publishers, assets.NewPublisher(m, p.fs, p.recorder, p.logger))
		p.logger.Info("Configured asset mapping",
			logfields.Mapping(m.Name()),
			logfields.Source(m.SourceDir),
			logfields.Destination(m.DestRoot),
			slog.Any("extensions", m.Filter.Extensions()),
			slog.Bool("clean", m.Clean),
			slog.Bool("content_hash", m.AppendHash))
	}
	ctx.rewriter = assets.NewRewriter(ctx.publishers, p.recorder, p.logger)
	ctx.state = StateConfigured
	return ctx, nil
}

// OnPreBuild starts a build run: it clears the copy caches, cleans the
// destination roots that are configured for it and publishes every file of
// publish_all mappings. It runs again before each rebuild in serve mode.
func (p *ExternalAssets) OnPreBuild(ctx *Context) error {
	if ctx == nil || (ctx.state != StateConfigured && ctx.state != StateDestinationPrepared) {
		return p.stateError(ctx, "OnPreBuild")
	}

	ctx.BuildID = uuid.NewString()
	ctx.startedAt = time.Now()
	ctx.logger = p.logger.With(logfields.RunID(ctx.BuildID))
	ctx.rewriter.SetLogger(ctx.logger)

	for _, pub := range ctx.publishers {
		pub.SetLogger(ctx.logger)
		pub.Reset()
		if err := pub.PrepareDestination(); err != nil {
			return err
		}
	}
	for _, pub := range ctx.publishers {
		if !pub.Mapping().PublishAll {
			continue
		}
		n, err := pub.PublishAll()
		if err != nil {
			return err
		}
		ctx.logger.Info("Published all eligible assets", logfields.Mapping(pub.Mapping().Name()), logfields.Count(n))
	}

	ctx.state = StateDestinationPrepared
	ctx.logger.Debug("Asset destinations prepared")
	return nil
}

// OnPageContent rewrites the asset references of one rendered page.
func (p *ExternalAssets) OnPageContent(ctx *Context, html string, page Page) (string, error) {
	if ctx == nil || ctx.state != StateDestinationPrepared {
		return "", p.stateError(ctx, "OnPageContent")
	}

	ctx.state = StateRewriting
	defer func() { ctx.state = StateDestinationPrepared }()

	start := time.Now()
	out, err := ctx.rewriter.Rewrite(html, page.SourcePath())
	p.recorder.ObservePageDuration(time.Since(start))
	if err != nil {
		ctx.logger.Error("Asset rewrite failed", logfields.Page(page.SourcePath()), logfields.Error(err))
		return "", err
	}
	return out, nil
}

// OnServe registers every mapped source directory with the host's watcher so
// edits trigger a rebuild. Registration failures are logged, not returned.
func (p *ExternalAssets) OnServe(ctx *Context, w WatchRegistrar) WatchRegistrar {
	if ctx == nil {
		return w
	}
	for _, m := range ctx.Mappings {
		if err := w.Watch(m.SourceDir); err != nil {
			p.logger.Warn("Failed to watch asset source directory", logfields.Source(m.SourceDir), logfields.Error(err))
			continue
		}
		p.logger.Debug("Watching asset source directory", logfields.Source(m.SourceDir))
	}
	return w
}

func (p *ExternalAssets) stateError(ctx *Context, hook string) error {
	state := StateUnconfigured
	if ctx != nil {
		state = ctx.state
	}
	return errors.InternalError("plugin hook called out of order").
		WithContext("hook", hook).
		WithContext("state", state.String()).Build()
}
