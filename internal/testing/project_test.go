package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/extassets/internal/config"
)

func TestNewProjectLayout(t *testing.T) {
	p := NewProject(t)
	assert.DirExists(t, p.Diagrams)
	assert.DirExists(t, p.Docs)
	assert.NoDirExists(t, p.Site)

	p.WriteAsset("sub/a.png", "a").WritePage("index.md", "# Home")
	assert.FileExists(t, filepath.Join(p.Diagrams, "sub", "a.png"))
	assert.FileExists(t, filepath.Join(p.Docs, "index.md"))
}

func TestWriteConfigParses(t *testing.T) {
	p := NewProject(t)
	data, err := os.ReadFile(p.WriteConfig())
	require.NoError(t, err)

	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.Docs, cfg.Site.DocsDir)
	require.Len(t, cfg.Mappings, 1)
	assert.Equal(t, p.Diagrams, cfg.Mappings[0].SourceDirectory)
}

func TestFileAssertions(t *testing.T) {
	p := NewProject(t)
	p.WriteFile(filepath.Join(p.Site, "assets", "a.png"), "bytes")

	p.Output().
		AssertFileExists("assets/a.png").
		AssertFileNotExists("assets/b.png").
		AssertFileContains("assets/a.png", "byt").
		AssertFileEquals("assets/a.png", "bytes")
	assert.Equal(t, "bytes", p.Output().GetFileContent("assets/a.png"))
}
