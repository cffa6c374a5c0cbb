package assets

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/extassets/internal/util/sets"
)

// ExtensionFilter is a case-insensitive extension allow-list.
type ExtensionFilter struct {
	exts sets.Set[string]
}

// NewExtensionFilter normalizes exts ("PNG", ".png", "png" are equivalent)
// and ignores blank entries.
func NewExtensionFilter(exts []string) ExtensionFilter {
	s := sets.New[string]()
	for _, e := range exts {
		if n := NormalizeExtension(e); n != "" {
			s.Add(n)
		}
	}
	return ExtensionFilter{exts: s}
}

// NormalizeExtension lowercases e and adds a leading dot.
func NormalizeExtension(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" || e == "." {
		return ""
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

// Allows reports whether name's extension is in the allow-list.
func (f ExtensionFilter) Allows(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext != "" && f.exts.Has(ext)
}

// Extensions returns the normalized extensions in sorted order.
func (f ExtensionFilter) Extensions() []string {
	return sets.Sorted(f.exts)
}
