package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/pricebook/pkg/api"
	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/hazyhaar/pricebook/pkg/importer"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v2"
)

func serveCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API (and MCP endpoint)",
		Action: rt.serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides addr)",
			},
			catalogFlag(),
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "Serve the MCP tools over stdin/stdout instead of HTTP",
			},
		},
	}
}

func (rt *runtime) serve(c *cli.Context) error {
	cfg := rt.cfg
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}
	logger := rt.logger

	// The server starts even when the catalog cannot be loaded; queries then
	// answer 503 until it is fixed and the process restarted.
	eng := catalog.NewEngine(logger)
	if err := eng.LoadDir(rt.catalogDir(c)); err != nil {
		logger.Warn("serving without a price catalog", "dir", rt.catalogDir(c), "error", err)
	}

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("stdio") {
		logger.Info("MCP stdio server ready")
		stdio := server.NewStdioServer(api.NewMCPServer(eng, logger, version))
		return stdio.Listen(ctx, os.Stdin, os.Stdout)
	}

	var mcpSrv *server.MCPServer
	if cfg.MCP {
		mcpSrv = api.NewMCPServer(eng, logger, version)
	}

	if cfg.CheckInterval > 0 {
		sdb, err := rt.openSources()
		if err != nil {
			return err
		}
		defer sdb.Close()
		go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(eng, logger, mcpSrv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pricebook listening", "addr", cfg.Addr, "mcp", mcpSrv != nil, "loaded", eng.IsLoaded())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
