package plugin

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/extassets/internal/assets"
)

// Context is the explicit per-build state of the plugin. It is created by
// OnConfig, reset by OnPreBuild and read by OnPageContent. A Context is not
// safe for concurrent use; hooks are called sequentially by the host.
type Context struct {
	// BuildID identifies the current build run; it changes on every OnPreBuild.
	BuildID string

	// SiteDir is where the generated site is written.
	SiteDir string

	// Mappings are the resolved mappings in configuration order.
	Mappings []*assets.Mapping

	publishers []*assets.Publisher
	rewriter   *assets.Rewriter
	state      State
	startedAt  time.Time
	logger     *slog.Logger
}

// State returns the current lifecycle state.
func (c *Context) State() State { return c.state }

// Publishers returns the publishers in mapping order.
func (c *Context) Publishers() []*assets.Publisher { return c.publishers }

// StartedAt returns when the current build run started.
func (c *Context) StartedAt() time.Time { return c.startedAt }

// CopiedCount returns the number of files published in the current run.
func (c *Context) CopiedCount() int {
	n := 0
	for _, p := range c.publishers {
		n += p.CopiedCount()
	}
	return n
}
