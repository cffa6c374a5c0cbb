package config

import (
	"time"

	"git.home.luguber.info/inful/extassets/internal/foundation/normalization"
)

const (
	defaultTargetURLPrefix = "assets"
	defaultHashAlgorithm   = "sha1"
	defaultHashLength      = 12
	defaultDocsDir         = "./docs"
	defaultOutputDir       = "./site"
	defaultTitle           = "Documentation"
	defaultServeAddr       = "127.0.0.1:8000"
	defaultDebounce        = 300 * time.Millisecond
	defaultMetricsPath     = "/metrics"
)

var defaultAllowedExtensions = []string{".png", ".gif"}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SiteDefaultApplier handles reference host defaults.
type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.DocsDir == "" {
		cfg.Site.DocsDir = defaultDocsDir
	}
	if cfg.Site.OutputDir == "" {
		cfg.Site.OutputDir = defaultOutputDir
	}
	if cfg.Site.Title == "" {
		cfg.Site.Title = defaultTitle
	}
	return nil
}

// MappingDefaultApplier fills in per-mapping defaults. clean_destination is
// left as a nil pointer when omitted; Mapping.Clean treats nil as true.
type MappingDefaultApplier struct{}

func (MappingDefaultApplier) Domain() string { return "mappings" }

func (MappingDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Mappings {
		m := &cfg.Mappings[i]
		if m.TargetURLPrefix == "" {
			m.TargetURLPrefix = defaultTargetURLPrefix
		}
		if len(m.AllowedExtensions) == 0 {
			m.AllowedExtensions = append([]string(nil), defaultAllowedExtensions...)
		}
		if m.HashAlgorithm == "" {
			m.HashAlgorithm = defaultHashAlgorithm
		}
		m.HashAlgorithm = normalization.Key(m.HashAlgorithm)
		if m.HashLength == 0 {
			m.HashLength = defaultHashLength
		}
	}
	return nil
}

// ServeDefaultApplier handles preview server and metrics defaults.
type ServeDefaultApplier struct{}

func (ServeDefaultApplier) Domain() string { return "serve" }

func (ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = defaultServeAddr
	}
	if cfg.Serve.Debounce == 0 {
		cfg.Serve.Debounce = defaultDebounce
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{SiteDefaultApplier{}, MappingDefaultApplier{}, ServeDefaultApplier{}}
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers() {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
