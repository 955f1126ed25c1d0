package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/importer"
	"github.com/hazyhaar/pricebook/pkg/kit"
	"github.com/urfave/cli/v2"
)

var version = "dev"

// runtime carries what the Before hook resolved to every command.
type runtime struct {
	cfg    config
	logger *slog.Logger
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pricebook:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	rt := &runtime{}
	return &cli.App{
		Name:      "pricebook",
		Usage:     "Search a product price catalog and price shopping lists",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Logging level (debug, info, warn, error); overrides the config file",
			},
		},
		Before: func(c *cli.Context) error {
			return rt.setup(c, stderr)
		},
		Commands: []*cli.Command{
			serveCommand(rt),
			searchCommand(rt),
			quoteCommand(rt),
			importCommand(rt),
			sourcesCommand(rt),
		},
	}
}

func (rt *runtime) setup(c *cli.Context, stderr io.Writer) error {
	cfgPath := c.String("config")
	cfg, found, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if !found {
		rt.logger.Debug("no config file, using defaults", "path", cfgPath)
	}
	return nil
}

// catalogDir returns the --catalog flag when given, else the configured dir.
func (rt *runtime) catalogDir(c *cli.Context) string {
	if dir := c.String("catalog"); dir != "" {
		return dir
	}
	return rt.cfg.CatalogDir
}

// openEngine loads the catalog for one-shot commands, where an unloadable
// catalog is fatal.
func (rt *runtime) openEngine(c *cli.Context) (*catalog.Engine, error) {
	eng := catalog.NewEngine(rt.logger)
	if err := eng.LoadDir(rt.catalogDir(c)); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return eng, nil
}

// openSources opens the import source database and seeds it with every
// registered adapter.
func (rt *runtime) openSources() (*importer.SourceDB, error) {
	if err := os.MkdirAll(filepath.Dir(rt.cfg.SourcesDB), 0o755); err != nil {
		return nil, fmt.Errorf("create sources dir: %w", err)
	}
	sdb, err := importer.OpenSourceDB(rt.cfg.SourcesDB)
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

// run dispatches fn as a logged CLI endpoint.
func (rt *runtime) run(c *cli.Context, action string, fn kit.Endpoint, req any) (any, error) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx := kit.WithTransport(parent, "cli")
	ep := kit.Chain(kit.RequestID(), kit.Logging(rt.logger, action))(fn)
	return ep(ctx, req)
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Catalog directory containing manifest.yaml (overrides catalog_dir)",
	}
}
