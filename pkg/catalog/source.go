package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// LoadDir reads dir/manifest.yaml and loads the data file it names.
func LoadDir(dir string, logger *slog.Logger) (*Index, *Manifest, error) {
	m, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, nil, err
	}
	ix, err := LoadFile(filepath.Join(dir, m.DataFile), m.Format, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog %s: %w", m.ID, err)
	}
	return ix, m, nil
}

// LoadFile loads a delimited catalog file, transcoding it to UTF-8 when
// the format declares another encoding.
func LoadFile(path string, format FormatSpec, logger *slog.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if enc := format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(f, e.NewDecoder())
	}

	opts := &LoadOptions{Logger: logger}
	if format.DescriptionColumn != "" {
		opts.DescriptionColumns = []string{format.DescriptionColumn}
	}
	if format.PriceColumn != "" {
		opts.PriceColumns = []string{format.PriceColumn}
	}
	return LoadReader(r, opts)
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
