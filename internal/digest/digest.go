// Package digest holds the content-hash algorithms available for cache-busting
// asset URLs. It is the single registry consulted by configuration validation
// and by the publisher.
package digest

import (
	"crypto/md5"  //nolint:gosec // cache-busting only
	"crypto/sha1" //nolint:gosec // cache-busting only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/foundation/normalization"
)

// Func constructs a fresh digest.
type Func func() hash.Hash

// MinLength is the shortest accepted hash_length.
const MinLength = 4

var algorithms = normalization.NewNormalizer(map[string]Func{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
	"xxhash": func() hash.Hash { return xxhash.New() },
}, nil)

// Algorithms lists the supported hash_algorithm names in sorted order.
func Algorithms() []string {
	return algorithms.Keys()
}

// Supported reports whether name is a registered algorithm.
func Supported(name string) bool {
	_, ok := algorithms.Lookup(name)
	return ok
}

// Lookup returns the digest constructor registered under name. Names are
// matched case-insensitively.
func Lookup(name string) (Func, error) {
	fn, ok := algorithms.Lookup(name)
	if !ok {
		return nil, errors.ConfigError("unsupported hash algorithm").
			WithContext("hash_algorithm", name).
			WithContext("supported", Algorithms()).Build()
	}
	return fn, nil
}

// Content streams path through a digest from newHash and returns the hex
// digest truncated to length characters (the full digest when length exceeds it).
func Content(fsys afero.Fs, path string, newHash Func, length int) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "open asset for hashing").
			Fatal().WithContext("source", path).Build()
	}
	defer func() { _ = f.Close() }()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "hash asset").
			Fatal().WithContext("source", path).Build()
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if length > 0 && length < len(sum) {
		sum = sum[:length]
	}
	return sum, nil
}
