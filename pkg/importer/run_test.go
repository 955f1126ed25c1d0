package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCatalog returns a build func writing data as the catalog's data.csv.
func writeCatalog(catalogID, data string) func(string) error {
	return func(outputDir string) error {
		dir := filepath.Join(outputDir, catalogID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "data.csv"), []byte(data), 0o644); err != nil {
			return err
		}
		return catalog.WriteManifest(filepath.Join(dir, catalog.ManifestFile), &catalog.Manifest{
			ID:       catalogID,
			Version:  "2026-10-15",
			Source:   "stub",
			DataFile: "data.csv",
		})
	}
}

// liveCatalog seeds outputDir/precios-ar with a one-entry catalog.
func liveCatalog(t *testing.T, outputDir string) string {
	t.Helper()
	require.NoError(t, writeCatalog("precios-ar", "description;list price\nYerba mate 1kg;3.500,00\n")(outputDir))
	return filepath.Join(outputDir, "precios-ar")
}

func assertOnlyLive(t *testing.T, outputDir string) {
	t.Helper()
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"precios-ar"}, names, "staging directories are removed")
}

func TestRun_ReplacesLiveCatalog(t *testing.T) {
	out := t.TempDir()
	live := liveCatalog(t, out)

	a := &stubAdapter{id: "stub-ar", catalogID: "precios-ar",
		build: writeCatalog("precios-ar", "description;list price\nArroz 1kg;1.000,00\nFideos 500g;890\n")}
	n, err := Run(context.Background(), a, "https://example.org/precios.csv", out, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ix, _, err := catalog.LoadDir(live, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, "Arroz 1kg", ix.Entry(0).Description)
	assertOnlyLive(t, out)
}

func TestRun_FirstImport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "catalogs")

	a := &stubAdapter{id: "stub-ar", catalogID: "precios-ar",
		build: writeCatalog("precios-ar", "description;list price\nArroz 1kg;1000\n")}
	n, err := Run(context.Background(), a, "", out, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assertOnlyLive(t, out)
}

func TestRun_FailureKeepsLiveCatalog(t *testing.T) {
	tests := []struct {
		name  string
		build func(string) error
	}{
		{"adapter error", func(string) error { return errors.New("download: 503") }},
		{"unloadable output", writeCatalog("precios-ar", "producto|precio\nArroz|1000\n")},
		{"nothing written", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			live := liveCatalog(t, out)
			before, err := os.ReadFile(filepath.Join(live, "data.csv"))
			require.NoError(t, err)

			a := &stubAdapter{id: "stub-ar", catalogID: "precios-ar", build: tt.build}
			_, err = Run(context.Background(), a, "", out, quietLogger())
			require.Error(t, err)

			after, err := os.ReadFile(filepath.Join(live, "data.csv"))
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
			assertOnlyLive(t, out)
		})
	}
}
