package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/extassets/internal/config"
)

func newTestRewriter(t *testing.T, pubs ...*Publisher) *Rewriter {
	t.Helper()
	return NewRewriter(pubs, nil, nil)
}

func TestRewriteScenario(t *testing.T) {
	f := newFixture(t)
	// docs and the external source live side by side: docs/guide.md references ../src/...
	writeFile(t, filepath.Join(f.src, "diagrams", "flow.png"), "FLOW")
	page := filepath.Join(f.docs, "guide.md")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(`<p><img src="../src/diagrams/flow.png" alt="Flow"></p>`, page)
	require.NoError(t, err)

	assert.Contains(t, out, `src="/assets/diagrams/flow.png"`)
	assert.Contains(t, out, `alt="Flow"`)
	got, err := os.ReadFile(filepath.Join(f.site, "assets", "diagrams", "flow.png"))
	require.NoError(t, err)
	assert.Equal(t, "FLOW", string(got))
}

func TestRewriteDocsInsideSourceDirectory(t *testing.T) {
	// The source directory holds both diagrams/flow.png and docs/guide.md;
	// the site is generated outside of it.
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	project := filepath.Join(root, "project")
	writeFile(t, filepath.Join(project, "diagrams", "flow.png"), "bytes")
	writeFile(t, filepath.Join(project, "docs", "guide.md"), "# Guide")
	m, err := NewMapping(config.Mapping{
		SourceDirectory:   project + "/docs/..",
		TargetURLPrefix:   "assets",
		AllowedExtensions: []string{".png"},
		HashAlgorithm:     "sha1",
		HashLength:        12,
	}, filepath.Join(root, "out"))
	require.NoError(t, err)

	out, err := newTestRewriter(t, NewPublisher(m, nil, nil, nil)).
		Rewrite(`<img src="../diagrams/flow.png">`, filepath.Join(project, "docs", "guide.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `src="/assets/diagrams/flow.png"`)
	assert.FileExists(t, filepath.Join(root, "out", "assets", "diagrams", "flow.png"))
}

func TestRewriteLeavesForeignReferencesUntouched(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)
	rw := newTestRewriter(t, pub)
	page := filepath.Join(f.docs, "index.md")

	inputs := []string{
		`<a href="#section">jump</a>`,
		`<img src="https://cdn.example.com/a.png">`,
		`<img src="//cdn.example.com/a.png">`,
		`<a href="mailto:someone@example.com">mail</a>`,
		`<img src="data:image/png;base64,AAAA">`,
		`<img src="/src/a.png">`,
		`<img src="">`,
		`<img alt="no src">`,
		`<a href="?page=2">next</a>`,
	}
	for _, in := range inputs {
		out, err := rw.Rewrite(in, page)
		require.NoError(t, err)
		assert.Equal(t, in, out, "input must be returned byte-identical")
	}
	assert.Zero(t, pub.CopiedCount())
}

func TestRewriteKeepsAbsoluteAttributeNextToRewrite(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(
		`<img src="../src/a.png"><a href="https://example.com/x.png">ext</a><a href="#top">top</a>`,
		filepath.Join(f.docs, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `src="/assets/a.png"`)
	assert.Contains(t, out, `href="https://example.com/x.png"`)
	assert.Contains(t, out, `href="#top"`)
}

func TestRewritePatchesOnlyRewrittenAttributes(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	in := `<p class=intro><IMG SRC='../src/a.png' alt="A &amp; B"><br/>` +
		`<a href="https://x.io/?a=1&b=2">ext</a> <img src=../src/a.png></p>`
	out, err := newTestRewriter(t, pub).Rewrite(in, filepath.Join(f.docs, "index.md"))
	require.NoError(t, err)

	want := `<p class=intro><IMG SRC='/assets/a.png' alt="A &amp; B"><br/>` +
		`<a href="https://x.io/?a=1&b=2">ext</a> <img src="/assets/a.png"></p>`
	assert.Equal(t, want, out)
}

func TestRewriteRejectsSiblingDirectoryWithSharedPrefix(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "src_other", "x.png"), "x")
	writeFile(t, filepath.Join(f.root, "x.png"), "x")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)
	rw := newTestRewriter(t, pub)

	for _, in := range []string{`<img src="../src_other/x.png">`, `<img src="../x.png">`} {
		out, err := rw.Rewrite(in, filepath.Join(f.docs, "guide.md"))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
	assert.NoDirExists(t, filepath.Join(f.site, "assets"))
}

func TestRewriteExtensionAndExistenceChecks(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "photo.jpg"), "jpg")
	writeFile(t, filepath.Join(f.src, "x.PNG"), "png")
	require.NoError(t, os.MkdirAll(filepath.Join(f.src, "dir.png"), 0o755))
	pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) {
		c.AllowedExtensions = []string{"png"}
	}), nil, nil, nil)
	rw := newTestRewriter(t, pub)
	page := filepath.Join(f.docs, "guide.md")

	for _, in := range []string{
		`<img src="../src/photo.jpg">`,
		`<img src="../src/missing.png">`,
		`<img src="../src/dir.png">`,
	} {
		out, err := rw.Rewrite(in, page)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}

	out, err := rw.Rewrite(`<a href="../src/x.PNG">download</a>`, page)
	require.NoError(t, err)
	assert.Contains(t, out, `href="/assets/x.PNG"`)
}

func TestRewriteDecodesAndPreservesFragment(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "my file.png"), "x")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(`<a href="../src/my%20file.png#zoom">x</a>`, filepath.Join(f.docs, "a.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `href="/assets/my%20file.png#zoom"`)
}

func TestRewriteFullDocument(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "logo.gif"), "gif")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	in := `<!DOCTYPE html><html><head><title>T</title></head><body><img src="../src/logo.gif"></body></html>`
	out, err := newTestRewriter(t, pub).Rewrite(in, filepath.Join(f.docs, "index.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"), out)
	assert.Contains(t, out, "<title>T</title>")
	assert.Contains(t, out, `src="/assets/logo.gif"`)
}

func TestRewriteFragmentHasNoDocumentWrapper(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(`<h1>Title</h1><p><img src="../src/a.png"></p>`, filepath.Join(f.docs, "a.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<h1>Title</h1>"), out)
	assert.NotContains(t, out, "<body>")
	assert.NotContains(t, out, "<html>")
}

func TestRewritePublishesSharedAssetOnce(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "a")
	fs := newCountingFs()
	pub := NewPublisher(newTestMapping(t, f), fs, nil, nil)
	rw := newTestRewriter(t, pub)

	for _, page := range []string{"one.md", "two.md", filepath.Join("sub", "three.md")} {
		ref := "../src/a.png"
		if strings.HasPrefix(page, "sub") {
			ref = "../../src/a.png"
		}
		out, err := rw.Rewrite(`<img src="`+ref+`"><a href="`+ref+`">a</a>`, filepath.Join(f.docs, page))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "/assets/a.png"))
	}
	assert.Equal(t, 1, fs.total())
}

func TestRewriteFirstMatchingMappingWins(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "png")
	writeFile(t, filepath.Join(f.src, "nested", "b.svg"), "svg")

	// The broad mapping only takes PNGs; the nested one takes SVGs.
	broad := NewPublisher(newTestMapping(t, f), nil, nil, nil)
	nestedMapping, err := NewMapping(config.Mapping{
		SourceDirectory:   filepath.Join(f.src, "nested"),
		TargetURLPrefix:   "vector",
		AllowedExtensions: []string{"svg"},
		HashAlgorithm:     "sha1",
		HashLength:        12,
	}, f.site)
	require.NoError(t, err)
	nested := NewPublisher(nestedMapping, nil, nil, nil)

	rw := newTestRewriter(t, broad, nested)
	out, err := rw.Rewrite(`<img src="../src/a.png"><img src="../src/nested/b.svg">`, filepath.Join(f.docs, "p.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `src="/assets/a.png"`)
	assert.Contains(t, out, `src="/vector/b.svg"`)
}

func TestRewriteWithContentHash(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "a.png"), "abc")
	pub := NewPublisher(newTestMapping(t, f, func(c *config.Mapping) { c.AppendContentHash = true }), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(`<img src="../src/a.png">`, filepath.Join(f.docs, "p.md"))
	require.NoError(t, err)
	// sha1("abc") = a9993e364706...
	assert.Contains(t, out, `src="/assets/a.png?v=a9993e364706"`)
}

func TestRewriteFollowsSymlinkIntoSource(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.src, "real.png"), "r")
	require.NoError(t, os.Symlink(f.src, filepath.Join(f.docs, "ext")))
	pub := NewPublisher(newTestMapping(t, f), nil, nil, nil)

	out, err := newTestRewriter(t, pub).Rewrite(`<img src="ext/real.png">`, filepath.Join(f.docs, "p.md"))
	require.NoError(t, err)
	assert.Contains(t, out, `src="/assets/real.png"`)
}
