// Package finder discovers token definition files on an afero filesystem and
// watches them for changes.
package finder

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultExtensions are searched when a pattern names a directory.
var DefaultExtensions = []string{".yaml", ".yml"}

// TokenFinder finds token definition files matching a set of patterns.
type TokenFinder interface {
	Find(ctx context.Context, patterns ...string) ([]FileInfo, error)
}

// FileInfo is a discovered definition file.
type FileInfo struct {
	Path     string
	Content  []byte
	FileType string
}

// GlobFinder resolves doublestar patterns ("tokens/**/*.yaml"), plain files and
// directories. A directory is searched recursively for DefaultExtensions.
type GlobFinder struct {
	fs afero.Fs
}

func NewGlobFinder(fs afero.Fs) *GlobFinder {
	return &GlobFinder{fs: fs}
}

// Find returns every matching file once, sorted by path, with its content loaded.
func (f *GlobFinder) Find(ctx context.Context, patterns ...string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	seen := map[string]bool{}
	var paths []string
	for _, p := range patterns {
		matches, err := f.expand(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	out := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		data, err := afero.ReadFile(f.fs, p)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", p, err)
		}
		out = append(out, FileInfo{
			Path:     p,
			Content:  data,
			FileType: strings.TrimPrefix(filepath.Ext(p), "."),
		})
	}

	zerolog.Ctx(ctx).Debug().Strs("patterns", patterns).Int("files", len(out)).Msg("token files discovered")
	return out, nil
}

func (f *GlobFinder) expand(ctx context.Context, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)

	if !hasMeta(pattern) {
		info, err := f.fs.Stat(pattern)
		if err != nil {
			return nil, errors.Errorf("resolving %s: %w", pattern, err)
		}
		if !info.IsDir() {
			return []string{pattern}, nil
		}
		pattern = path.Join(pattern, "**", "*.{"+strings.Join(trimDots(DefaultExtensions), ",")+"}")
	}

	base, _ := doublestar.SplitPattern(pattern)
	if _, err := f.fs.Stat(base); err != nil {
		return nil, errors.Errorf("resolving %s: %w", pattern, err)
	}

	var out []string
	err := afero.Walk(f.fs, base, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		p = filepath.ToSlash(p)
		if ok, _ := doublestar.Match(pattern, p); ok {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", base, err)
	}
	return out, nil
}

// Roots returns the directories a set of patterns searches, for watching.
func Roots(patterns ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		base := filepath.ToSlash(p)
		if hasMeta(base) {
			base, _ = doublestar.SplitPattern(base)
		}
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func trimDots(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}
