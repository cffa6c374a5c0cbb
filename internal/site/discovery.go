package site

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
)

// File is a file discovered under the docs directory.
type File struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the docs directory, slash separated
	IsMarkdown   bool
}

// OutputPath returns the file's path relative to the output directory.
// Markdown pages are written as .html; everything else keeps its name.
func (f File) OutputPath() string {
	if !f.IsMarkdown {
		return filepath.FromSlash(f.RelativePath)
	}
	return filepath.FromSlash(htmlName(f.RelativePath))
}

// Discover walks docsDir and returns every visible file in lexical order.
// Hidden files and directories are skipped.
func Discover(fsys afero.Fs, docsDir string) ([]File, error) {
	var files []File
	err := afero.Walk(fsys, docsDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != docsDir && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return err
		}
		files = append(files, File{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			IsMarkdown:   isMarkdownFile(path),
		})
		slog.Debug("Discovered file", logfields.Path(rel), slog.Bool("markdown", isMarkdownFile(path)))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to discover docs").
			Fatal().WithContext("path", docsDir).Build()
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.RelativePath, b.RelativePath) })
	return files, nil
}

func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}

// htmlName replaces the markdown extension of a slash separated path with .html.
func htmlName(p string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext) + ".html"
}
