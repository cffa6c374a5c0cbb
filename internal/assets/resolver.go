package assets

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
)

// ResolveSourceDir expands a leading ~, makes dir absolute and evaluates
// symlinks. The result must be an existing directory.
func ResolveSourceDir(dir string) (string, error) {
	expanded, err := expandHome(strings.TrimSpace(dir))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "cannot expand home directory").
			Fatal().WithContext("source_directory", dir).Build()
	}
	canonical, err := Canonical(expanded)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "source directory not found").
			Fatal().UserAction().WithContext("source_directory", expanded).Build()
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return "", errors.ConfigError("source directory is not a directory").
			WithContext("source_directory", canonical).Build()
	}
	return canonical, nil
}

// Canonical returns the absolute, symlink-free form of p. p must exist.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// NormalizePrefix converts backslashes to forward slashes and drops empty
// and "." segments from a target URL prefix, so "./" and "/" both normalize
// to the site root. ".." segments are kept for the caller to reject.
func NormalizePrefix(prefix string) string {
	segments := strings.Split(strings.ReplaceAll(strings.TrimSpace(prefix), `\`, "/"), "/")
	kept := segments[:0]
	for _, s := range segments {
		if s != "" && s != "." {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "/")
}

// Within reports whether path lies strictly inside root. Both paths must be
// absolute and canonical; the test is on path components, so a sibling such
// as root_other/x is never inside root.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
