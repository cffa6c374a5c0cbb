package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/extassets/internal/metrics"
	"git.home.luguber.info/inful/extassets/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr   string `name:"addr" help:"Listen address (overrides serve.addr)"`
	Output string `short:"o" help:"Output directory for the generated site (overrides site.output_dir)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, s.Output)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	pcfg := preview.Config{Addr: cfg.Serve.Addr, Debounce: cfg.Serve.Debounce}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		pcfg.MetricsPath = cfg.Metrics.Path
		pcfg.MetricsHandler = metrics.HTTPHandler(reg)
	}

	builder, err := newBuilder(cfg, recorder)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := preview.New(builder, pcfg, nil)
	go func() {
		select {
		case <-srv.Ready():
			_, _ = fmt.Fprintf(stdout(g), "Serving %s at http://%s\n", builder.SiteDir(), srv.Addr())
		case <-ctx.Done():
		}
	}()
	return srv.Run(ctx)
}
