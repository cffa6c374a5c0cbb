package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/extassets/internal/digest"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
)

// ValidateConfig checks the structure of a defaulted configuration. Whether a
// source directory exists is checked later, when the mappings are resolved at
// build-configuration time.
func ValidateConfig(cfg *Config) error {
	var problems []string

	if len(cfg.Mappings) == 0 {
		problems = append(problems, "at least one mapping must be configured")
	}
	for i, m := range cfg.Mappings {
		if strings.TrimSpace(m.SourceDirectory) == "" {
			problems = append(problems, fmt.Sprintf("mappings[%d]: source_directory is required", i))
		}
		if !digest.Supported(m.HashAlgorithm) {
			problems = append(problems, fmt.Sprintf("mappings[%d]: unsupported hash_algorithm %q (supported: %s)",
				i, m.HashAlgorithm, strings.Join(digest.Algorithms(), ", ")))
		}
		if m.HashLength < 0 {
			problems = append(problems, fmt.Sprintf("mappings[%d]: hash_length must not be negative", i))
		}
	}
	if cfg.Serve.Debounce < 0 {
		problems = append(problems, "serve.debounce must be positive")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.ConfigError("invalid configuration: " + strings.Join(problems, "; ")).
		WithContext("problems", problems).Build()
}
