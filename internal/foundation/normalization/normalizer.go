// Package normalization maps user-supplied option names (hash algorithms,
// log levels) to typed values, ignoring case and surrounding whitespace.
package normalization

import (
	"slices"
	"strings"
)

// Normalizer provides string-to-value normalization with a default.
type Normalizer[T any] struct {
	values       map[string]T
	defaultValue T
	keys         []string // sorted, for error messages
}

// NewNormalizer creates a normalizer over values. The keys are normalized
// with Key.
func NewNormalizer[T any](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		nk := Key(k)
		normalized[nk] = v
		keys = append(keys, nk)
	}
	slices.Sort(keys)
	return &Normalizer[T]{values: normalized, defaultValue: defaultValue, keys: keys}
}

// Normalize returns the value registered under raw, or the default.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[Key(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Lookup returns the value registered under raw and whether it exists.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[Key(raw)]
	return v, ok
}

// Keys returns the registered keys in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return slices.Clone(n.keys)
}

// Key is the normalization applied to keys and input.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
