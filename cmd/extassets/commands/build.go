package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/extassets/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides site.output_dir)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.Output)
	if err != nil {
		return err
	}
	builder, err := newBuilder(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout(g), "Built %d pages and published %d assets into %s in %s\n",
		report.Pages, report.Published, builder.SiteDir(), report.Duration().Round(time.Millisecond))
	return nil
}
