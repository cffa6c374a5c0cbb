package assets

import (
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/extassets/internal/digest"
	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
	"git.home.luguber.info/inful/extassets/internal/metrics"
	"git.home.luguber.info/inful/extassets/internal/util/sets"
)

// Publisher copies files of one Mapping into its destination root. The copy
// cache is not synchronized; a Publisher belongs to a single build run.
type Publisher struct {
	mapping  *Mapping
	fs       afero.Fs
	copied   sets.Set[string]
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewPublisher creates a publisher. A nil fs uses the OS filesystem, a nil
// recorder records nothing and a nil logger uses slog.Default().
func NewPublisher(m *Mapping, fsys afero.Fs, recorder metrics.Recorder, logger *slog.Logger) *Publisher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		mapping:  m,
		fs:       fsys,
		copied:   sets.New[string](),
		recorder: recorder,
		logger:   logger.With(logfields.Mapping(m.Name())),
	}
}

// SetLogger replaces the publisher's logger, typically with one scoped to the
// current build run.
func (p *Publisher) SetLogger(logger *slog.Logger) {
	p.logger = logger.With(logfields.Mapping(p.mapping.Name()))
}

// Mapping returns the mapping this publisher serves.
func (p *Publisher) Mapping() *Mapping { return p.mapping }

// Reset forgets every copy made in the previous run.
func (p *Publisher) Reset() { p.copied.Clear() }

// Copied reports whether rel was published in the current run.
func (p *Publisher) Copied(rel string) bool {
	key, err := cacheKey(rel)
	return err == nil && p.copied.Has(key)
}

// CopiedCount returns the number of files published in the current run.
func (p *Publisher) CopiedCount() int { return p.copied.Len() }

// Publish copies SourceDir/rel to DestRoot/rel unless it was already copied
// in this run. A source file that no longer exists is skipped silently; any
// other I/O failure is returned as a fatal filesystem error.
func (p *Publisher) Publish(rel string) error {
	key, err := cacheKey(rel)
	if err != nil {
		return err
	}
	if p.copied.Has(key) {
		return nil
	}

	src := p.sourcePath(key)
	info, err := p.fs.Stat(src)
	switch {
	case err != nil && os.IsNotExist(err):
		p.logger.Debug("Asset vanished before copy", logfields.Source(src))
		p.recorder.IncSkipped(metrics.SkipMissingAtCopy)
		return nil
	case err != nil:
		return errors.WrapError(err, errors.CategoryFileSystem, "stat asset").
			Fatal().WithContext("source", src).Build()
	case !info.Mode().IsRegular():
		p.logger.Debug("Asset is not a regular file", logfields.Source(src))
		p.recorder.IncSkipped(metrics.SkipMissingAtCopy)
		return nil
	}

	dst := filepath.Join(p.mapping.DestRoot, filepath.FromSlash(key))
	n, err := copyFile(p.fs, src, dst)
	if err != nil {
		return err
	}
	p.copied.Add(key)
	p.recorder.IncPublished(p.mapping.Name())
	p.recorder.ObservePublishedBytes(p.mapping.Name(), n)
	p.logger.Debug("Published asset", logfields.Source(src), logfields.Destination(dst))
	return nil
}

// URLFor returns the public URL of rel: "/" + prefix + "/" + rel with
// forward slashes, plus "?v=<digest>" when content hashing is enabled. The
// digest is computed from the source file on every call.
func (p *Publisher) URLFor(rel string) (string, error) {
	key, err := cacheKey(rel)
	if err != nil {
		return "", err
	}

	var segments []string
	if p.mapping.Prefix != "" {
		segments = append(segments, strings.Split(p.mapping.Prefix, "/")...)
	}
	segments = append(segments, strings.Split(key, "/")...)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := "/" + strings.Join(segments, "/")

	if !p.mapping.AppendHash {
		return u, nil
	}
	sum, err := digest.Content(p.fs, p.sourcePath(key), p.mapping.newHash, p.mapping.HashLength)
	if err != nil {
		return "", err
	}
	return u + "?v=" + sum, nil
}

// PrepareDestination removes and recreates the destination root when the
// mapping is configured to clean it. Otherwise the root is created lazily by
// the first copy.
func (p *Publisher) PrepareDestination() error {
	if !p.mapping.Clean {
		return nil
	}
	root := p.mapping.DestRoot
	if err := p.fs.RemoveAll(root); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "remove destination root").
			Fatal().WithContext("destination", root).Build()
	}
	if err := p.fs.MkdirAll(root, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create destination root").
			Fatal().WithContext("destination", root).Build()
	}
	p.logger.Debug("Cleaned destination root", logfields.Destination(root))
	return nil
}

// PublishAll publishes every regular file under the source directory that
// passes the extension filter. Symlinks are not followed.
func (p *Publisher) PublishAll() (int, error) {
	before := p.copied.Len()
	err := afero.Walk(p.fs, p.mapping.SourceDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "walk source directory").
				Fatal().WithContext("path", path).Build()
		}
		if !info.Mode().IsRegular() || !p.mapping.Filter.Allows(path) {
			return nil
		}
		rel, err := filepath.Rel(p.mapping.SourceDir, path)
		if err != nil {
			return err
		}
		return p.Publish(rel)
	})
	return p.copied.Len() - before, err
}

func (p *Publisher) sourcePath(key string) string {
	return filepath.Join(p.mapping.SourceDir, filepath.FromSlash(key))
}

// cacheKey normalizes rel to a clean slash-separated path that stays inside
// the source directory.
func cacheKey(rel string) (string, error) {
	clean := filepath.Clean(rel)
	if !filepath.IsLocal(clean) {
		return "", errors.ValidationError("asset path escapes source directory").
			WithContext("path", rel).Build()
	}
	return filepath.ToSlash(clean), nil
}

func copyFile(fsys afero.Fs, src, dst string) (int64, error) {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "create destination directory").
			Fatal().WithContext("destination", filepath.Dir(dst)).Build()
	}

	in, err := fsys.Open(src)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "open asset").
			Fatal().WithContext("source", src).Build()
	}
	defer func() { _ = in.Close() }()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "create published asset").
			Fatal().WithContext("destination", dst).Build()
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.WrapError(err, errors.CategoryFileSystem, "copy asset").
			Fatal().WithContext("source", src).WithContext("destination", dst).Build()
	}
	return n, nil
}
