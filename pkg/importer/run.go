package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/pricebook/pkg/catalog"
)

// Run imports a into outputDir/CatalogID() and returns the number of loaded
// entries. The adapter writes into a staging directory inside outputDir; the
// live catalog directory is replaced only after the staged one loads back
// through the catalog loader. On any failure the live catalog is untouched.
func Run(ctx context.Context, a Adapter, sourceURL, outputDir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ensureDir(outputDir); err != nil {
		return 0, err
	}
	stage, err := os.MkdirTemp(outputDir, "."+a.CatalogID()+"-")
	if err != nil {
		return 0, fmt.Errorf("staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	if err := a.Import(ctx, sourceURL, stage, logger); err != nil {
		return 0, err
	}
	built := filepath.Join(stage, a.CatalogID())
	ix, _, err := catalog.LoadDir(built, logger)
	if err != nil {
		return 0, fmt.Errorf("verify: %w", err)
	}

	live := filepath.Join(outputDir, a.CatalogID())
	previous := filepath.Join(stage, "previous")
	if err := os.Rename(live, previous); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("replace catalog: %w", err)
	}
	if err := os.Rename(built, live); err != nil {
		if rerr := os.Rename(previous, live); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			logger.Error("restore previous catalog failed", "catalog", a.CatalogID(), "error", rerr)
		}
		return 0, fmt.Errorf("replace catalog: %w", err)
	}
	logger.Info("catalog replaced", "catalog", a.CatalogID(), "entries", ix.Len())
	return ix.Len(), nil
}
