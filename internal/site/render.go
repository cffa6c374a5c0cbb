package site

import (
	"bytes"
	"html/template"
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// newMarkdown returns the goldmark instance used for every page. Raw HTML is
// passed through so authors can write <img> tags directly.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(pageLinkTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// pageLinkTransformer points links to other markdown pages at their
// rendered .html file.
type pageLinkTransformer struct{}

func (pageLinkTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(pageLink(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

func pageLink(dest string) string {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || !isMarkdownFile(u.Path) {
		return dest
	}
	u.Path = htmlName(u.Path)
	return u.String()
}

const pageLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Page}}{{.Page}} | {{end}}{{.Site}}</title>
</head>
<body>
<main>
{{.Content}}
</main>
</body>
</html>
`

type pageData struct {
	Site    string
	Page    string
	Content template.HTML
}

var layout = template.Must(template.New("page").Parse(pageLayout))

// renderMarkdown converts a markdown page body to an HTML fragment.
func renderMarkdown(md goldmark.Markdown, source []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// wrapPage places a rewritten fragment inside the page layout.
func wrapPage(siteTitle, pageTitle, fragment string) ([]byte, error) {
	var buf bytes.Buffer
	err := layout.Execute(&buf, pageData{
		Site:    siteTitle,
		Page:    pageTitle,
		Content: template.HTML(fragment), //nolint:gosec // page HTML produced by goldmark and the rewriter
	})
	return buf.Bytes(), err
}
