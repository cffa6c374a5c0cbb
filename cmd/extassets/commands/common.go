package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/foundation/normalization"
	"git.home.luguber.info/inful/extassets/internal/metrics"
	"git.home.luguber.info/inful/extassets/internal/plugin"
	"git.home.luguber.info/inful/extassets/internal/site"
)

// Global carries process-wide state into every command.
type Global struct {
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"extassets.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site once, publishing referenced external assets"`
	Serve ServeCmd `cmd:"" help:"Build, serve and rebuild the site when docs or asset sources change"`
	Check CheckCmd `cmd:"" help:"Validate the configuration and print the resolved asset mappings"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := ParseLogLevel(c.Verbose, os.Getenv("EXTASSETS_LOG_LEVEL"))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ParseLogLevel returns Debug when verbose is set, otherwise the level named
// by env (debug, info, warn, error), defaulting to Info.
func ParseLogLevel(verbose bool, env string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return logLevels.Normalize(env)
}

var logLevels = normalization.NewNormalizer(map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

// loadConfig loads the configuration and applies the output directory override.
func loadConfig(path, output string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Site.OutputDir = output
	}
	return cfg, nil
}

// newBuilder wires the plugin into the site builder.
func newBuilder(cfg *config.Config, recorder metrics.Recorder) (*site.Builder, error) {
	logger := slog.Default()
	ext := plugin.New(cfg.Mappings, plugin.WithRecorder(recorder), plugin.WithLogger(logger))
	return site.NewBuilder(cfg.Site, ext, site.WithRecorder(recorder), site.WithLogger(logger))
}

func stdout(g *Global) io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}
