package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Site     SiteConfig    `yaml:"site"`
	Mappings []Mapping     `yaml:"mappings"`
	Serve    ServeConfig   `yaml:"serve"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// SiteConfig describes the reference host: where markdown pages live and
// where the generated site is written.
type SiteConfig struct {
	DocsDir   string `yaml:"docs_dir"`
	OutputDir string `yaml:"output_dir"`
	Title     string `yaml:"title,omitempty"`
	Clean     bool   `yaml:"clean"` // Remove the whole output directory before each build
}

// Mapping maps one external source directory to a public URL prefix.
type Mapping struct {
	SourceDirectory   string   `yaml:"source_directory"`
	TargetURLPrefix   string   `yaml:"target_url_prefix,omitempty"`
	AllowedExtensions []string `yaml:"allowed_extensions,omitempty"`
	CleanDestination  *bool    `yaml:"clean_destination,omitempty"`
	AppendContentHash bool     `yaml:"append_content_hash,omitempty"`
	HashAlgorithm     string   `yaml:"hash_algorithm,omitempty"`
	HashLength        int      `yaml:"hash_length,omitempty"`
	PublishAll        bool     `yaml:"publish_all,omitempty"`
}

// Clean reports whether the destination root is recreated at build start.
func (m Mapping) Clean() bool {
	return m.CleanDestination == nil || *m.CleanDestination
}

// UnmarshalYAML accepts the legacy mkdocs-style keys (source_dir,
// target_url_path, include_exts) alongside the canonical ones.
func (m *Mapping) UnmarshalYAML(value *yaml.Node) error {
	type plain Mapping
	var raw struct {
		plain         `yaml:",inline"`
		SourceDir     string   `yaml:"source_dir"`
		TargetURLPath string   `yaml:"target_url_path"`
		IncludeExts   []string `yaml:"include_exts"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*m = Mapping(raw.plain)
	if m.SourceDirectory == "" {
		m.SourceDirectory = raw.SourceDir
	}
	if m.TargetURLPrefix == "" {
		m.TargetURLPrefix = raw.TargetURLPath
	}
	if len(m.AllowedExtensions) == 0 {
		m.AllowedExtensions = raw.IncludeExts
	}
	return nil
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint of the preview server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Load reads, expands, defaults and validates the configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").Fatal().WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes configuration YAML, expanding ${VAR} references from the
// environment, then applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().UserAction().Build()
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	clean := true
	example := Config{
		Site: SiteConfig{
			DocsDir:   "./docs",
			OutputDir: "./site",
			Title:     "Documentation",
		},
		Mappings: []Mapping{
			{
				SourceDirectory:   "${HOME}/shared/diagrams",
				TargetURLPrefix:   defaultTargetURLPrefix,
				AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
				CleanDestination:  &clean,
				HashAlgorithm:     defaultHashAlgorithm,
			},
		},
		Serve: ServeConfig{
			Addr:     defaultServeAddr,
			Debounce: defaultDebounce,
		},
		Metrics: MetricsConfig{Path: defaultMetricsPath},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").Fatal().WithContext("path", configPath).Build()
	}
	return nil
}
