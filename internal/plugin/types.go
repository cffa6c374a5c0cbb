package plugin

// BuildConfig is the part of the host's build configuration the plugin reads.
type BuildConfig interface {
	// SiteDir is the directory the generated site is written to.
	SiteDir() string
}

// Page is the host's view of one page being rendered.
type Page interface {
	// SourcePath is the page's source file; relative references in its HTML
	// are resolved against this file's directory.
	SourcePath() string
}

// WatchRegistrar is the host's file-watch capability in dev-serve mode.
type WatchRegistrar interface {
	Watch(path string) error
}

// State is the lifecycle state of a Context.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateDestinationPrepared
	StateRewriting
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateDestinationPrepared:
		return "destination_prepared"
	case StateRewriting:
		return "rewriting"
	default:
		return "unknown"
	}
}
