package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/plugin"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Output string `short:"o" help:"Output directory to resolve destinations against (overrides site.output_dir)"`
}

type siteDir string

func (s siteDir) SiteDir() string { return string(s) }

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, c.Output)
	if err != nil {
		return err
	}
	ctx, err := plugin.New(cfg.Mappings).OnConfig(siteDir(cfg.Site.OutputDir))
	if err != nil {
		return err
	}
	return printMappings(g, cfg, ctx)
}

func printMappings(g *Global, cfg *config.Config, ctx *plugin.Context) error {
	tw := tabwriter.NewWriter(stdout(g), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PREFIX\tSOURCE\tDESTINATION\tEXTENSIONS\tCLEAN\tHASH\tPUBLISH ALL")
	for _, m := range ctx.Mappings {
		hash := "-"
		if m.AppendHash {
			hash = fmt.Sprintf("%s/%d", m.HashName, m.HashLength)
		}
		_, _ = fmt.Fprintf(tw, "/%s\t%s\t%s\t%s\t%t\t%s\t%t\n",
			m.Prefix, m.SourceDir, m.DestRoot, strings.Join(m.Filter.Extensions(), ","), m.Clean, hash, m.PublishAll)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout(g), "%d mapping(s) OK for site %s\n", len(cfg.Mappings), cfg.Site.OutputDir)
	return err
}
