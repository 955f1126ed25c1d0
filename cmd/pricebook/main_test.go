package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groceries = `productos_descripcion;productos_precio_lista
Arroz blanco 1kg;1.000,00
Arroz integral 1kg;1.200,00
Fideos;500
`

// fixture writes a catalog directory and a config pointing at it.
func fixture(t *testing.T) (cfgPath string) {
	t.Helper()
	dir := t.TempDir()
	catDir := filepath.Join(dir, "catalogs", "demo")
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	require.NoError(t, catalog.WriteManifest(filepath.Join(catDir, catalog.ManifestFile), &catalog.Manifest{
		ID:       "demo",
		Version:  "1",
		Source:   "test",
		DataFile: "data.csv",
	}))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "data.csv"), []byte(groceries), 0o644))

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "catalog_dir: " + catDir + "\n" +
		"sources_db: " + filepath.Join(dir, "catalogs", "sources.db") + "\n" +
		"log_level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"pricebook"}, args...))
	return stdout.String(), err
}

func TestSearchCommand(t *testing.T) {
	cfg := fixture(t)

	out, err := runApp(t, "", "-c", cfg, "search", "--json", "arroz", "integral")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[
		{"description":"Arroz integral 1kg","price":1200},
		{"description":"Arroz blanco 1kg","price":1000}
	]}`, out)

	out, err = runApp(t, "", "-c", cfg, "search", "-n", "1", "fideos")
	require.NoError(t, err)
	assert.Equal(t, "Fideos  500.00\n", out)

	_, err = runApp(t, "", "-c", cfg, "search")
	assert.ErrorContains(t, err, "query is required")
}

func TestQueryCommands_MissingCatalog(t *testing.T) {
	cfg := fixture(t)

	_, err := runApp(t, "", "-c", cfg, "search", "--catalog", t.TempDir(), "arroz")
	assert.ErrorContains(t, err, "load catalog")
}

func TestQuoteCommand(t *testing.T) {
	cfg := fixture(t)

	out, err := runApp(t, "fideos\n\narroz\n", "-c", cfg, "quote", "--json")
	require.NoError(t, err)
	var res catalog.QuoteResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Items, 2)
	assert.False(t, res.Items[0].Ambiguous)
	assert.True(t, res.Items[1].Ambiguous)
	assert.Len(t, res.Items[1].Candidates, 2)
	assert.InDelta(t, 500.0, res.TotalEstimated, 1e-9)

	out, err = runApp(t, "", "-c", cfg, "quote", "fideos", "caviar")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "500.00")

	_, err = runApp(t, "  \n", "-c", cfg, "quote")
	assert.ErrorContains(t, err, "no items")
}

func TestSourcesCommand(t *testing.T) {
	cfg := fixture(t)

	out, err := runApp(t, "", "-c", cfg, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "sepa-precios-ar")
	assert.Contains(t, out, "precios-ar")

	out, err = runApp(t, "", "-c", cfg, "sources", "--source", "sepa-precios-ar", "--set-url", "http://127.0.0.1:1/sepa.zip")
	require.NoError(t, err)
	assert.Contains(t, out, "http://127.0.0.1:1/sepa.zip")

	_, err = runApp(t, "", "-c", cfg, "sources", "--set-url", "http://x")
	assert.ErrorContains(t, err, "needs --source")
}

func TestImportCommand_RequiresSource(t *testing.T) {
	cfg := fixture(t)

	_, err := runApp(t, "", "-c", cfg, "import")
	assert.ErrorContains(t, err, "--source")

	_, err = runApp(t, "", "-c", cfg, "import", "--source", "nope")
	assert.ErrorContains(t, err, "unknown import source")
}

func TestLoadConfig(t *testing.T) {
	cfg, found, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, defaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\ncheck_interval: 6h\nmcp: false\n"), 0o644))
	cfg, found, err = loadConfig(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "6h0m0s", cfg.CheckInterval.String())
	assert.False(t, cfg.MCP)
	assert.Equal(t, "catalogs/precios-ar", cfg.CatalogDir, "unset keys keep defaults")
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := fixture(t)

	_, err := runApp(t, "", "-c", cfg, "-l", "loud", "search", "arroz")
	assert.ErrorContains(t, err, "invalid log level")
}
