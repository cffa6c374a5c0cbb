package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/extassets/internal/config"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
)

func TestPublishCopiesOncePerRun(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "diagrams", "flow.png"), "PNGDATA")
	fs := newCountingFs()
	pub := NewPublisher(newTestMapping(t, f), fs, nil, nil)

	require.NoError(t, pub.Publish("diagrams/flow.png"))
	require.NoError(t, pub.Publish("diagrams/flow.png"))
	require.NoError(t, pub.Publish(filepath.Join("diagrams", ".", "flow.png")))

	assert.Equal(t, 1, fs.total(), "second publish must not touch the filesystem")
	assert.True(t, pub.Copied("diagrams/flow.png"))
	assert.Equal(t, 1, pub.CopiedCount())

	pub.Reset()
	assert.False(t, pub.Copied("diagrams/flow.png"))
	require.NoError(t, pub.Publish("diagrams/flow.png"))
	assert.Equal(t, 2, fs.total(), "a new run copies again")
}

func TestPublishRoundTrip(t *testing.T) {
	f := newFixture(t)
	data := "\x89PNG\r\n\x1a\nbinary\x00content"
	writeFile(t, filepath.Join(f.src, "diagrams", "flow.png"), data)
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	require.NoError(t, pub.Publish("diagrams/flow.png"))
	u, err := pub.URLFor("diagrams/flow.png")
	require.NoError(t, err)
	assert.Equal(t, "/assets/diagrams/flow.png", u)

	got, err := os.ReadFile(filepath.Join(f.site, filepath.FromSlash(strings.TrimPrefix(u, "/"))))
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestPublishMissingSourceIsSkipped(t *testing.T) {
	f := newFixture(t)
	fs := newCountingFs()
	pub := NewPublisher(newTestMapping(t, f), fs, nil, nil)

	require.NoError(t, pub.Publish("gone.png"))
	assert.False(t, pub.Copied("gone.png"))
	assert.Zero(t, fs.total())
}

func TestPublishRejectsEscapingPath(t *testing.T) {
	f := newFixture(t)
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	err := pub.Publish("../secret.png")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestPublishWriteFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "x")
	m := newTestMapping(t, f)

	// The source is readable but the destination filesystem is read-only.
	ro := afero.NewReadOnlyFs(afero.NewOsFs())
	err := NewPublisher(m, ro, nil, nil).Publish("a.png")
	require.Error(t, err)
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryFileSystem, c.Category())
	assert.True(t, c.IsFatal())
}

func TestURLFor(t *testing.T) {
	f := newFixture(t)
	no := false

	t.Run("nested prefix", func(t *testing.T) {
		pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) { c.TargetURLPrefix = "/static/ext/" }), nil, nil, nil)
		u, err := pub.URLFor(filepath.Join("a", "b.png"))
		require.NoError(t, err)
		assert.Equal(t, "/static/ext/a/b.png", u)
	})

	t.Run("site root prefix", func(t *testing.T) {
		pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) {
			c.TargetURLPrefix = ""
			c.CleanDestination = &no
		}), nil, nil, nil)
		u, err := pub.URLFor("b.png")
		require.NoError(t, err)
		assert.Equal(t, "/b.png", u)
	})

	t.Run("segments are escaped", func(t *testing.T) {
		pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)
		u, err := pub.URLFor("my diagrams/flow#1.png")
		require.NoError(t, err)
		assert.Equal(t, "/assets/my%20diagrams/flow%231.png", u)
	})
}

func TestURLForContentHash(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "same")
	writeFile(t, filepath.Join(f.src, "b.png"), "same")
	writeFile(t, filepath.Join(f.src, "c.png"), "diff")
	pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) { c.AppendContentHash = true }), nil, nil, nil)

	ua, err := pub.URLFor("a.png")
	require.NoError(t, err)
	ub, err := pub.URLFor("b.png")
	require.NoError(t, err)
	uc, err := pub.URLFor("c.png")
	require.NoError(t, err)

	suffix := func(u string) string { return u[strings.Index(u, "?v="):] }
	assert.True(t, strings.HasPrefix(ua, "/assets/a.png?v="))
	assert.Len(t, suffix(ua), len("?v=")+12)
	assert.Equal(t, suffix(ua), suffix(ub))
	assert.NotEqual(t, suffix(ua), suffix(uc))

	// The digest follows the current file content even if the path was
	// already published in this run.
	require.NoError(t, pub.Publish("c.png"))
	writeFile(t, filepath.Join(f.src, "c.png"), "same")
	uc2, err := pub.URLFor("c.png")
	require.NoError(t, err)
	assert.Equal(t, suffix(ua), suffix(uc2))
}

func TestPrepareDestination(t *testing.T) {
	f := newFixture(t)
	stale := filepath.Join(f.site, "assets", "stale.png")
	writeFile(t, stale, "old")

	t.Run("clean disabled keeps files", func(t *testing.T) {
		no := false
		pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) { c.CleanDestination = &no }), nil, nil, nil)
		require.NoError(t, pub.PrepareDestination())
		assert.FileExists(t, stale)
	})

	t.Run("clean removes stale files", func(t *testing.T) {
		pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)
		require.NoError(t, pub.PrepareDestination())
		assert.NoFileExists(t, stale)
		assert.DirExists(t, filepath.Join(f.site, "assets"))
	})
}

func TestPublishAll(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	writeFile(t, filepath.Join(f.src, "nested", "b.GIF"), "b")
	writeFile(t, filepath.Join(f.src, "notes.txt"), "skip")
	require.NoError(t, os.Symlink(filepath.Join(f.src, "a.png"), filepath.Join(f.src, "link.png")))

	fs := newCountingFs()
	pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) { c.PublishAll = true }), fs, nil, nil)

	n, err := pub.PublishAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(f.site, "assets", "a.png"))
	assert.FileExists(t, filepath.Join(f.site, "assets", "nested", "b.GIF"))
	assert.NoFileExists(t, filepath.Join(f.site, "assets", "notes.txt"))
	assert.NoFileExists(t, filepath.Join(f.site, "assets", "link.png"))

	require.NoError(t, pub.Publish("a.png"))
	assert.Equal(t, 2, fs.total(), "files published eagerly are not copied again")
}
