package assets

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// attrRef identifies one reference value on one kind of tag. A given value
// always rewrites to the same URL within a page, so replacements are keyed by
// value rather than by element.
type attrRef struct {
	tag, attr, value string
}

// patchAttributes applies replacements to the raw bytes of content, touching
// only the quoted value of each rewritten attribute. want holds how many
// elements were rewritten per reference; ok is false when the token stream
// does not account for exactly that many, and the caller must fall back to
// serializing the parsed tree.
func patchAttributes(content string, replacements map[attrRef]string, want map[attrRef]int) (string, bool) {
	got := make(map[attrRef]int, len(want))
	var out bytes.Buffer
	out.Grow(len(content))

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return "", false
			}
			break
		}
		raw := append([]byte(nil), z.Raw()...)
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			raw = patchTag(raw, replacements, got)
		}
		out.Write(raw)
	}

	for ref, n := range want {
		if got[ref] != n {
			return "", false
		}
	}
	return out.String(), true
}

// patchTag rewrites the first occurrence of a referenced attribute in one raw
// start tag and returns the tag unchanged otherwise.
func patchTag(raw []byte, replacements map[attrRef]string, got map[attrRef]int) []byte {
	name, attrs := scanTag(raw)
	if name == "image" {
		name = "img"
	}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if seen[a.name] {
			continue
		}
		seen[a.name] = true

		ref := attrRef{tag: name, attr: a.name, value: html.UnescapeString(string(raw[a.start:a.end]))}
		newURL, ok := replacements[ref]
		if !ok {
			continue
		}
		got[ref]++

		quote := a.quote
		if quote == 0 {
			quote = '"'
		}
		var b bytes.Buffer
		b.Write(raw[:a.valueStart])
		b.WriteByte(quote)
		b.WriteString(html.EscapeString(newURL))
		b.WriteByte(quote)
		b.Write(raw[a.valueEnd:])
		return b.Bytes()
	}
	return raw
}

// rawAttr locates one attribute inside a raw tag. [start,end) is the value
// text; [valueStart,valueEnd) additionally covers the surrounding quotes.
type rawAttr struct {
	name                 string
	start, end           int
	valueStart, valueEnd int
	quote                byte
}

// scanTag splits a raw start tag into its lower-cased name and the attributes
// that carry a value. It follows the HTML tokenizer's attribute rules closely
// enough for tags the tokenizer has already delimited.
func scanTag(raw []byte) (string, []rawAttr) {
	i := 1 // skip '<'
	n := len(raw)
	start := i
	for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	name := strings.ToLower(string(raw[start:i]))

	var attrs []rawAttr
	for i < n {
		for i < n && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= n || raw[i] == '>' {
			break
		}
		nameStart := i
		i++
		for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		attrName := strings.ToLower(string(raw[nameStart:i]))

		j := i
		for j < n && isSpace(raw[j]) {
			j++
		}
		if j >= n || raw[j] != '=' {
			i = j
			continue
		}
		j++
		for j < n && isSpace(raw[j]) {
			j++
		}
		a := rawAttr{name: attrName, valueStart: j}
		if j < n && (raw[j] == '"' || raw[j] == '\'') {
			a.quote = raw[j]
			a.start = j + 1
			k := a.start
			for k < n && raw[k] != a.quote {
				k++
			}
			a.end = k
			a.valueEnd = min(k+1, n)
		} else {
			a.start = j
			k := j
			for k < n && !isSpace(raw[k]) && raw[k] != '>' {
				k++
			}
			a.end = k
			a.valueEnd = k
		}
		attrs = append(attrs, a)
		i = a.valueEnd
	}
	return name, attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
