package assets

import (
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
	"git.home.luguber.info/inful/extassets/internal/metrics"
)

// referenceAttrs are rewritten in this order: every img[src] in document
// order, then every a[href].
var referenceAttrs = []struct{ tag, attr string }{
	{"img", "src"},
	{"a", "href"},
}

// Rewriter patches asset references in rendered pages.
type Rewriter struct {
	publishers []*Publisher
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewRewriter creates a rewriter over publishers. Mappings are tried in the
// given order; the first whose source directory contains a reference and
// whose filter accepts it handles that reference.
func NewRewriter(publishers []*Publisher, recorder metrics.Recorder, logger *slog.Logger) *Rewriter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{publishers: publishers, recorder: recorder, logger: logger}
}

// SetLogger replaces the rewriter's logger.
func (r *Rewriter) SetLogger(logger *slog.Logger) { r.logger = logger }

// match is an accepted reference: the owning publisher and the path relative
// to its source directory.
type match struct {
	pub      *Publisher
	rel      string
	fragment string
}

// Rewrite publishes every eligible asset referenced from content and returns
// the patched HTML. pageSource is the page's source file; relative references
// are resolved against its directory. Only the rewritten attribute values
// change; every other byte of content is preserved.
func (r *Rewriter) Rewrite(content, pageSource string) (string, error) {
	if len(r.publishers) == 0 || strings.TrimSpace(content) == "" {
		return content, nil
	}

	pageDir, err := filepath.Abs(filepath.Dir(pageSource))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "resolve page directory").
			WithContext("page", pageSource).Build()
	}

	doc, fullDocument, err := parseHTML(content)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "parse page HTML").
			WithContext("page", pageSource).Build()
	}

	logger := r.logger.With(logfields.Page(pageSource))
	replacements := make(map[attrRef]string)
	counts := make(map[attrRef]int)
	var rewriteErr error
	for _, target := range referenceAttrs {
		doc.Find(target.tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			value, _ := sel.Attr(target.attr)
			m, ok := r.resolve(value, pageDir, logger)
			if !ok {
				return true
			}
			newURL, err := r.publish(m)
			if err != nil {
				rewriteErr = err
				return false
			}
			if newURL == "" {
				return true
			}
			sel.SetAttr(target.attr, newURL)
			ref := attrRef{tag: target.tag, attr: target.attr, value: value}
			replacements[ref] = newURL
			counts[ref]++
			r.recorder.IncRewritten(m.pub.mapping.Name())
			logger.Debug("Rewrote asset reference", logfields.Reference(value), logfields.URL(newURL))
			return true
		})
		if rewriteErr != nil {
			return "", rewriteErr
		}
	}

	if len(replacements) == 0 {
		return content, nil
	}
	if out, ok := patchAttributes(content, replacements, counts); ok {
		return out, nil
	}
	logger.Debug("Falling back to re-serializing page HTML")
	return renderHTML(doc, fullDocument, pageSource)
}

// resolve applies the eligibility checks to one attribute value.
func (r *Rewriter) resolve(value, pageDir string, logger *slog.Logger) (match, bool) {
	skip := func(reason metrics.SkipReason) (match, bool) {
		r.recorder.IncSkipped(reason)
		return match{}, false
	}

	if strings.TrimSpace(value) == "" {
		return skip(metrics.SkipEmpty)
	}
	if strings.HasPrefix(value, "#") {
		return skip(metrics.SkipAnchor)
	}
	u, err := url.Parse(value)
	if err != nil {
		return skip(metrics.SkipUnparseableRef)
	}
	if u.Scheme != "" || u.Host != "" || strings.HasPrefix(value, "//") {
		return skip(metrics.SkipAbsolute)
	}
	if u.Path == "" {
		return skip(metrics.SkipEmpty)
	}
	// Site-root paths already name a location in the generated site.
	if path.IsAbs(u.Path) {
		return skip(metrics.SkipAbsolute)
	}

	candidate := filepath.Join(pageDir, filepath.FromSlash(u.Path))
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return skip(metrics.SkipNotFound)
	}
	if info, err := os.Stat(resolved); err != nil || !info.Mode().IsRegular() {
		return skip(metrics.SkipNotFound)
	}

	reason := metrics.SkipOutsideSource
	for _, pub := range r.publishers {
		m := pub.mapping
		if !Within(m.SourceDir, resolved) {
			continue
		}
		if !m.Filter.Allows(resolved) {
			reason = metrics.SkipExtension
			continue
		}
		rel, err := filepath.Rel(m.SourceDir, resolved)
		if err != nil {
			continue
		}
		return match{pub: pub, rel: rel, fragment: u.Fragment}, true
	}

	logger.Debug("Reference not eligible", logfields.Reference(value), logfields.Reason(string(reason)))
	return skip(reason)
}

// publish copies the matched asset and returns its URL, or "" when the file
// disappeared before it could be copied.
func (r *Rewriter) publish(m match) (string, error) {
	if err := m.pub.Publish(m.rel); err != nil {
		return "", err
	}
	if !m.pub.Copied(m.rel) {
		return "", nil
	}
	u, err := m.pub.URLFor(m.rel)
	if err != nil {
		return "", err
	}
	if m.fragment != "" {
		u += "#" + m.fragment
	}
	return u, nil
}

// parseHTML parses content as a full document when it starts with a doctype
// or <html> tag and as a body fragment otherwise.
func parseHTML(content string) (*goquery.Document, bool, error) {
	if looksLikeDocument(content) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		return doc, true, err
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, false, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(body), false, nil
}

func renderHTML(doc *goquery.Document, fullDocument bool, pageSource string) (string, error) {
	var out string
	var err error
	if fullDocument {
		out, err = goquery.OuterHtml(doc.Selection)
	} else {
		out, err = doc.Selection.Html()
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "serialize page HTML").
			WithContext("page", pageSource).Build()
	}
	return out, nil
}

func looksLikeDocument(content string) bool {
	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 64 {
		head = head[:64]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}
