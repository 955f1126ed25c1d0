// CLAUDE:SUMMARY Manifest YAML schema describing a catalog source: provenance, data file, encoding and column names.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name looked up in a catalog directory.
const ManifestFile = "manifest.yaml"

// Manifest describes a catalog source: where it came from and how to read it.
type Manifest struct {
	ID        string     `yaml:"id" json:"id"`
	Version   string     `yaml:"version" json:"version"`
	Source    string     `yaml:"source" json:"source"`
	SourceURL string     `yaml:"source_url" json:"source_url,omitempty"`
	License   string     `yaml:"license" json:"license"`
	DataFile  string     `yaml:"data_file" json:"data_file"`
	Format    FormatSpec `yaml:"format" json:"-"`
}

// FormatSpec describes the delimited file. The delimiter is not declared:
// it is detected from the header.
type FormatSpec struct {
	Encoding          string `yaml:"encoding,omitempty"`
	DescriptionColumn string `yaml:"description_column,omitempty"`
	PriceColumn       string `yaml:"price_column,omitempty"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "data.csv"
	}
	return &m, nil
}

// WriteManifest writes m as YAML to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
