// CLAUDE:SUMMARY CLI subcommands that build catalogs from published price lists and manage the import source registry.
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/pricebook/pkg/importer"
	"github.com/urfave/cli/v2"
)

func importCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:   "import",
		Usage:  "Download a published price list and build a catalog directory from it",
		Action: rt.importSources,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Adapter ID to import, as listed by the sources command",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Import every registered source",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory receiving one catalog subdirectory per source (overrides import_dir)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall import timeout",
				Value: 2 * time.Hour,
			},
		},
	}
}

func sourcesCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:   "sources",
		Usage:  "List import sources with their last check and import",
		Action: rt.listSources,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "set-url",
				Usage: "Override the URL of the source given by --source",
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Adapter ID for --set-url",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Check every source URL now before listing",
			},
		},
	}
}

func (rt *runtime) importSources(c *cli.Context) error {
	if !c.Bool("all") && c.String("source") == "" {
		return fmt.Errorf("import: give --source <id> or --all")
	}
	outputDir := rt.cfg.ImportDir
	if dir := c.String("output-dir"); dir != "" {
		outputDir = dir
	}

	sdb, err := rt.openSources()
	if err != nil {
		return err
	}
	defer sdb.Close()

	var adapters []importer.Adapter
	if c.Bool("all") {
		adapters = importer.All()
	} else {
		a, err := importer.Get(c.String("source"))
		if err != nil {
			return err
		}
		adapters = []importer.Adapter{a}
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	var failed int
	for _, a := range adapters {
		if err := rt.importOne(ctx, sdb, a, outputDir); err != nil {
			failed++
			rt.logger.Error("import failed", "adapter", a.ID(), "error", err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "[%s] OK -> %s\n", a.ID(), filepath.Join(outputDir, a.CatalogID()))
	}
	if failed > 0 {
		return fmt.Errorf("import: %d of %d sources failed", failed, len(adapters))
	}
	return nil
}

// importOne runs one adapter and records the import once the new catalog is
// in place.
func (rt *runtime) importOne(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}
	n, err := importer.Run(ctx, a, url, outputDir, rt.logger)
	if err != nil {
		return err
	}
	return sdb.RecordImport(a.ID(), n)
}

func (rt *runtime) listSources(c *cli.Context) error {
	sdb, err := rt.openSources()
	if err != nil {
		return err
	}
	defer sdb.Close()

	if url := c.String("set-url"); url != "" {
		if c.String("source") == "" {
			return fmt.Errorf("sources: --set-url needs --source")
		}
		if err := sdb.SetURL(c.String("source"), url); err != nil {
			return err
		}
	}
	if c.Bool("check") {
		importer.NewChecker(sdb, rt.logger, time.Hour).CheckAll(c.Context)
	}

	sources, err := sdb.ListSources()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATALOG\tSTATUS\tIMPORTED\tURL")
	for _, src := range sources {
		status := "-"
		if src.LastStatus != nil {
			status = fmt.Sprint(*src.LastStatus)
		}
		imported := "-"
		if src.LastImport != nil && src.ImportCount != nil {
			imported = fmt.Sprintf("%s (%d)", time.Unix(*src.LastImport, 0).UTC().Format("2006-01-02"), *src.ImportCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", src.AdapterID, src.CatalogID, status, imported, src.SourceURL)
	}
	return tw.Flush()
}
