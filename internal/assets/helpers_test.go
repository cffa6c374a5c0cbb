package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/extassets/internal/config"
)

// fixture is a temporary tree with an external source directory, a docs
// directory and a site output directory.
type fixture struct {
	root string
	src  string
	docs string
	site string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	f := fixture{
		root: root,
		src:  filepath.Join(root, "src"),
		docs: filepath.Join(root, "docs"),
		site: filepath.Join(root, "site"),
	}
	for _, d := range []string{f.src, f.docs, f.site} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	return f
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func mappingConfig(src string, mutate ...func(*config.Mapping)) config.Mapping {
	m := config.Mapping{
		SourceDirectory:   src,
		TargetURLPrefix:   "assets",
		AllowedExtensions: []string{".png", ".gif"},
		HashAlgorithm:     "sha1",
		HashLength:        12,
	}
	for _, fn := range mutate {
		fn(&m)
	}
	return m
}

func newTestMapping(t *testing.T, f fixture, mutate ...func(*config.Mapping)) *Mapping {
	t.Helper()
	m, err := NewMapping(mappingConfig(f.src, mutate...), f.site)
	require.NoError(t, err)
	return m
}

// countingFs counts files opened for writing, keyed by path.
type countingFs struct {
	afero.Fs
	writes map[string]int
}

func newCountingFs() *countingFs {
	return &countingFs{Fs: afero.NewOsFs(), writes: map[string]int{}}
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		c.writes[name]++
	}
	return c.Fs.OpenFile(name, flag, perm)
}

func (c *countingFs) Create(name string) (afero.File, error) {
	c.writes[name]++
	return c.Fs.Create(name)
}

func (c *countingFs) total() int {
	n := 0
	for _, v := range c.writes {
		n += v
	}
	return n
}
