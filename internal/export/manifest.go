package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is written at the root of the output directory.
const ManifestFile = "_manifest.yaml"

// Manifest describes one run's output.
type Manifest struct {
	RunID     string          `yaml:"run_id"`
	Seed      uint64          `yaml:"seed"`
	Generator string          `yaml:"generator,omitempty"`
	Format    string          `yaml:"format"`
	Tables    []ManifestTable `yaml:"tables"`
}

// ManifestTable lists one table's files.
type ManifestTable struct {
	Name    string   `yaml:"name"`
	Rows    int      `yaml:"rows"`
	Files   []string `yaml:"files"`
	Columns []string `yaml:"columns"`
}

// WriteManifest stores m under dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest under dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
