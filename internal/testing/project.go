package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/extassets/internal/config"
)

// Project is an on-disk site layout:
//
//	<root>/diagrams  external asset source directory
//	<root>/docs      markdown pages
//	<root>/site      build output
type Project struct {
	t        *testing.T
	Root     string
	Diagrams string
	Docs     string
	Site     string
}

// NewProject creates the layout under a fresh temp directory. Paths are
// canonical so they compare equal to resolved mapping paths.
func NewProject(t *testing.T) *Project {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	p := &Project{
		t:        t,
		Root:     root,
		Diagrams: filepath.Join(root, "diagrams"),
		Docs:     filepath.Join(root, "docs"),
		Site:     filepath.Join(root, "site"),
	}
	for _, dir := range []string{p.Diagrams, p.Docs} {
		if err := os.MkdirAll(dir, testDirPermissions); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	return p
}

// WriteFile writes data to path, creating parent directories.
func (p *Project) WriteFile(path, data string) *Project {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), testDirPermissions); err != nil {
		p.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(data), testFilePermissions); err != nil {
		p.t.Fatalf("Failed to write %s: %v", path, err)
	}
	return p
}

// WriteAsset writes a file below the asset source directory.
func (p *Project) WriteAsset(rel, data string) *Project {
	p.t.Helper()
	return p.WriteFile(filepath.Join(p.Diagrams, filepath.FromSlash(rel)), data)
}

// WritePage writes a markdown page below the docs directory.
func (p *Project) WritePage(rel, markdown string) *Project {
	p.t.Helper()
	return p.WriteFile(filepath.Join(p.Docs, filepath.FromSlash(rel)), markdown)
}

// Mapping returns a mapping publishing .png files from Diagrams under /assets.
func (p *Project) Mapping() config.Mapping {
	return config.Mapping{
		SourceDirectory:   p.Diagrams,
		TargetURLPrefix:   "assets",
		AllowedExtensions: []string{".png"},
		HashAlgorithm:     "sha1",
		HashLength:        12,
	}
}

// SiteConfig returns the site section for this layout.
func (p *Project) SiteConfig() config.SiteConfig {
	return config.SiteConfig{DocsDir: p.Docs, OutputDir: p.Site, Title: "Docs"}
}

// WriteConfig writes a configuration file for this layout and returns its path.
func (p *Project) WriteConfig() string {
	p.t.Helper()
	path := filepath.Join(p.Root, "extassets.yaml")
	p.WriteFile(path, fmt.Sprintf(`site:
  docs_dir: %s
  output_dir: %s
mappings:
  - source_directory: %s
    target_url_prefix: assets
`, p.Docs, p.Site, p.Diagrams))
	return path
}

// Output returns assertions rooted at the build output directory.
func (p *Project) Output() *FileAssertions {
	return NewFileAssertions(p.t, p.Site)
}
