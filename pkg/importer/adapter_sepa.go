// CLAUDE:SUMMARY Import adapter for the Argentine SEPA price publication (Precios Claros): lowest list price per product description.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/pricebook/pkg/catalog"
)

func init() {
	Register(&sepaAdapter{})
}

type sepaAdapter struct{}

func (a *sepaAdapter) ID() string        { return "sepa-precios-ar" }
func (a *sepaAdapter) CatalogID() string { return "precios-ar" }
func (a *sepaAdapter) Description() string {
	return "SEPA precios de lista (Precios Claros, Argentina)"
}
func (a *sepaAdapter) DefaultURL() string {
	return "https://datos.produccion.gob.ar/dataset/sepa-precios"
}
func (a *sepaAdapter) License() string { return "CC-BY-4.0" }

func (a *sepaAdapter) Import(ctx context.Context, sourceURL, outputDir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	dlDir := filepath.Join(outputDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return err
	}
	defer os.RemoveAll(dlDir)

	archive := filepath.Join(dlDir, "sepa.download")
	logger.Info("downloading source", "adapter", a.ID(), "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, archive); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	// The default URL is the dataset page; follow it to the archive.
	link, err := archiveLink(archive, sourceURL)
	if err != nil {
		return err
	}
	if link != "" {
		logger.Info("following dataset link", "adapter", a.ID(), "url", link)
		if err := downloadFile(ctx, link, archive); err != nil {
			return fmt.Errorf("download: %w", err)
		}
	}

	files, err := sepaProductFiles(archive, dlDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no productos.csv found in %s", sourceURL)
	}

	prices := make(map[string]float64)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := parseSEPAProducts(path, prices)
		if err != nil {
			return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		logger.Debug("products file parsed", "file", filepath.Base(path), "rows", rows)
	}
	if len(prices) == 0 {
		return fmt.Errorf("no priced products in %s", sourceURL)
	}

	catDir := filepath.Join(outputDir, a.CatalogID())
	if err := ensureDir(catDir); err != nil {
		return err
	}
	if err := writeCatalogCSV(filepath.Join(catDir, "data.csv"), prices); err != nil {
		return err
	}
	logger.Info("catalog written", "catalog", a.CatalogID(), "files", len(files), "descriptions", len(prices))

	return catalog.WriteManifest(filepath.Join(catDir, catalog.ManifestFile), &catalog.Manifest{
		ID:        a.CatalogID(),
		Version:   time.Now().UTC().Format("2006-01-02"),
		Source:    "SEPA Precios Claros",
		SourceURL: sourceURL,
		License:   a.License(),
		DataFile:  "data.csv",
		Format: catalog.FormatSpec{
			Encoding:          "utf-8",
			DescriptionColumn: descriptionColumn,
			PriceColumn:       priceColumn,
		},
	})
}

// sepaProductFiles returns the productos.csv files of a download. The
// publication is a ZIP of per-retailer ZIPs; a bare productos.csv is also
// accepted.
func sepaProductFiles(path, workDir string) ([]string, error) {
	zipped, err := isZip(path)
	if err != nil {
		return nil, err
	}
	if !zipped {
		return []string{path}, nil
	}

	isProducts := func(name string) bool {
		return strings.EqualFold(filepath.Base(name), "productos.csv")
	}
	isArchive := func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".zip")
	}

	files, err := unzipMatching(path, workDir, isProducts)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	nested, err := unzipMatching(path, workDir, isArchive)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	for i, inner := range nested {
		dir := filepath.Join(workDir, fmt.Sprintf("z%03d", i))
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		found, err := unzipMatching(inner, dir, isProducts)
		if err != nil {
			return nil, fmt.Errorf("unzip %s: %w", filepath.Base(inner), err)
		}
		files = append(files, found...)
	}
	return files, nil
}

// parseSEPAProducts reads one pipe-delimited productos.csv and folds its rows
// into prices, keeping the lowest list price seen for each description.
// Rows without a usable description or a positive price are skipped; that
// includes the trailing "Última actualización" line of the publication.
func parseSEPAProducts(path string, prices map[string]float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '|'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int)
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.ToLower(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	descCol, hasDesc := colIdx[descriptionColumn]
	priceCol, hasPrice := colIdx[priceColumn]
	if !hasDesc || !hasPrice {
		return 0, fmt.Errorf("columns %q/%q not found in header %v", descriptionColumn, priceColumn, header)
	}

	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if descCol >= len(record) || priceCol >= len(record) {
			continue
		}
		desc := strings.Join(strings.Fields(record[descCol]), " ")
		if desc == "" {
			continue
		}
		price, err := catalog.ParsePrice(record[priceCol])
		if err != nil || price <= 0 {
			continue
		}
		rows++
		if old, ok := prices[desc]; !ok || price < old {
			prices[desc] = price
		}
	}
	return rows, nil
}
