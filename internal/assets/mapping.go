package assets

import (
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/digest"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
)

// Mapping is a resolved mapping configuration. It is immutable once built.
type Mapping struct {
	SourceDir  string // canonical absolute path
	Prefix     string // no leading or trailing slash; empty publishes at the site root
	DestRoot   string // site output dir joined with Prefix
	Filter     ExtensionFilter
	Clean      bool
	AppendHash bool
	HashName   string
	HashLength int
	PublishAll bool

	newHash digest.Func
}

// NewMapping validates cfg and resolves it against the site output directory.
func NewMapping(cfg config.Mapping, siteDir string) (*Mapping, error) {
	src, err := ResolveSourceDir(cfg.SourceDirectory)
	if err != nil {
		return nil, err
	}

	prefix := NormalizePrefix(cfg.TargetURLPrefix)
	if slices.Contains(strings.Split(prefix, "/"), "..") {
		return nil, errors.ConfigError("target URL prefix must not contain '..'").
			WithContext("target_url_prefix", cfg.TargetURLPrefix).Build()
	}

	site, err := filepath.Abs(siteDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot resolve site directory").
			Fatal().WithContext("path", siteDir).Build()
	}
	dest := filepath.Join(site, filepath.FromSlash(prefix))

	if dest == src || Within(dest, src) || Within(src, dest) {
		return nil, errors.ConfigError("destination root overlaps source directory").
			WithContext("source_directory", src).
			WithContext("destination", dest).Build()
	}
	if cfg.Clean() && prefix == "" {
		return nil, errors.ConfigError("clean_destination requires a non-empty target_url_prefix").
			WithContext("source_directory", src).Build()
	}

	m := &Mapping{
		SourceDir:  src,
		Prefix:     prefix,
		DestRoot:   dest,
		Filter:     NewExtensionFilter(cfg.AllowedExtensions),
		Clean:      cfg.Clean(),
		AppendHash: cfg.AppendContentHash,
		HashName:   cfg.HashAlgorithm,
		HashLength: cfg.HashLength,
		PublishAll: cfg.PublishAll,
	}
	if m.HashName == "" {
		m.HashName = "sha1"
	}
	if m.newHash, err = digest.Lookup(m.HashName); err != nil {
		return nil, err
	}
	if m.HashLength == 0 {
		m.HashLength = 12
	}
	if m.HashLength < digest.MinLength {
		return nil, errors.ConfigError("hash_length is too short").
			WithContext("hash_length", m.HashLength).
			WithContext("minimum", digest.MinLength).Build()
	}
	return m, nil
}

// Name labels the mapping in logs and metrics.
func (m *Mapping) Name() string {
	if m.Prefix == "" {
		return "/"
	}
	return m.Prefix
}
