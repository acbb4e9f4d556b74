// Package bundle packs an engine snapshot into a tar.gz archive: the full
// state, the validation report and one flattened token list per platform.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/engine"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

const (
	StateFile  = "state.json"
	ReportFile = "report.json"
)

// PlatformFile is the archive path of the token list for p.
func PlatformFile(p tokens.Platform) string {
	return "platforms/" + string(p) + ".json"
}

// Bundle is an archive held in memory, keyed by slash separated path.
type Bundle struct {
	Files map[string][]byte
}

func (b *Bundle) Get(name string) ([]byte, bool) {
	data, ok := b.Files[name]
	return data, ok
}

// State decodes the engine snapshot stored in the bundle.
func (b *Bundle) State() (engine.State, error) {
	var st engine.State
	data, ok := b.Get(StateFile)
	if !ok {
		return st, errors.Errorf("bundle has no %s", StateFile)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, errors.Errorf("decoding %s: %w", StateFile, err)
	}
	return st, nil
}

// Snapshot renders every file of a bundle for e.
func Snapshot(ctx context.Context, e *engine.Engine) (map[string][]byte, error) {
	files := map[string][]byte{}

	add := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Errorf("encoding %s: %w", name, err)
		}
		files[name] = append(data, '\n')
		return nil
	}

	if err := add(StateFile, e.ExportState(ctx)); err != nil {
		return nil, err
	}
	if err := add(ReportFile, e.GenerateValidationReport(ctx)); err != nil {
		return nil, err
	}
	for _, p := range tokens.Platforms() {
		list, err := e.Integrator().GetTokensForPlatform(ctx, p)
		if err != nil {
			return nil, errors.Errorf("flattening tokens for %s: %w", p, err)
		}
		if err := add(PlatformFile(p), list); err != nil {
			return nil, err
		}
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Msg("bundle snapshot rendered")
	return files, nil
}

// Write archives files in name order, so identical input and modTime give
// identical bytes.
func Write(w io.Writer, files map[string][]byte, modTime time.Time) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)

	for _, name := range names {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(files[name])),
			ModTime:  modTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return errors.Errorf("writing header for %s: %w", name, err)
		}
		if _, err := tw.Write(files[name]); err != nil {
			return errors.Errorf("writing %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Errorf("closing tar writer: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return errors.Errorf("closing gzip writer: %w", err)
	}
	return nil
}

// WriteFile writes the bundle for e to path on fs.
func WriteFile(ctx context.Context, fs afero.Fs, path string, e *engine.Engine, modTime time.Time) error {
	files, err := Snapshot(ctx, e)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, files, modTime); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing bundle %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Info().Str("path", path).Int("bytes", buf.Len()).Msg("bundle written")
	return nil
}

type ReadOptions struct {
	// StripComponents drops leading path elements, like tar --strip-components.
	StripComponents int

	// Filter returns false to skip an entry.
	Filter func(header *tar.Header) bool
}

// Read loads a tar.gz archive into memory. Only regular files are kept.
func Read(data []byte, opts ReadOptions) (*Bundle, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	b := &Bundle{Files: map[string][]byte{}}
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		parts := SplitPath(hdr.Name)
		if len(parts) <= opts.StripComponents {
			continue
		}
		if opts.Filter != nil && !opts.Filter(hdr) {
			continue
		}
		name := strings.Join(parts[opts.StripComponents:], "/")
		if _, dup := b.Files[name]; dup {
			return nil, errors.Errorf("duplicate entry %s", name)
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", name, err)
		}
		b.Files[name] = content
	}
	return b, nil
}

// ReadFile reads the bundle at path on fs.
func ReadFile(fs afero.Fs, path string, opts ReadOptions) (*Bundle, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading bundle %s: %w", path, err)
	}
	return Read(data, opts)
}

// SplitPath splits an archive path into its elements.
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(strings.Trim(path, "/"), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
