package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	Addr          string        `yaml:"addr"`
	CatalogDir    string        `yaml:"catalog_dir"`
	ImportDir     string        `yaml:"import_dir"`
	SourcesDB     string        `yaml:"sources_db"`
	CheckInterval time.Duration `yaml:"check_interval"` // 0 disables the source checker
	MCP           bool          `yaml:"mcp"`
	LogLevel      string        `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Addr:       ":8420",
		CatalogDir: "catalogs/precios-ar",
		ImportDir:  "catalogs",
		SourcesDB:  "catalogs/sources.db",
		MCP:        true,
		LogLevel:   "info",
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, bool, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}
