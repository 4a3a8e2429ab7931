// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medsft/pkg/types"
)

// Manifest is the on-disk record of one acquisition run, written next to
// the JSON output so a dataset can be traced back to the query that
// produced it.
type Manifest struct {
	RunID  string         `yaml:"run_id"`
	Query  ManifestQuery  `yaml:"query"`
	Counts ManifestCounts `yaml:"counts"`
	Final  State          `yaml:"final_state"`
	Output string         `yaml:"output"`
	Config ManifestConfig `yaml:"config"`
	Time   time.Time      `yaml:"timestamp"`
}

// ManifestQuery stores the search parameters.
type ManifestQuery struct {
	Term      string `yaml:"term"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

// ManifestCounts stores how many items each stage saw.
type ManifestCounts struct {
	Identifiers int `yaml:"identifiers"`
	Fetched     int `yaml:"fetched"`
	Skipped     int `yaml:"skipped"`
	Written     int `yaml:"written"`
}

// ManifestConfig stores the limits the run used.
type ManifestConfig struct {
	MaxArticles int `yaml:"max_articles"`
	BatchSize   int `yaml:"batch_size"`
}

// NewManifest builds a manifest for a finished run.
func NewManifest(res Result, cfg types.AcquisitionConfig) Manifest {
	return Manifest{
		RunID: res.RunID,
		Query: ManifestQuery{
			Term:      res.Query,
			StartDate: cfg.StartDate,
			EndDate:   cfg.EndDate,
		},
		Counts: ManifestCounts{
			Identifiers: res.Identifiers,
			Fetched:     res.Fetched,
			Skipped:     res.Skipped,
			Written:     len(res.Records),
		},
		Final:  res.Final,
		Output: cfg.OutputPath,
		Config: ManifestConfig{
			MaxArticles: cfg.MaxArticles,
			BatchSize:   cfg.BatchSize,
		},
		Time: time.Now().UTC(),
	}
}

// ManifestPath returns the manifest location for an output file:
// "data/pubmed.json" becomes "data/pubmed.manifest.yaml".
func ManifestPath(outputPath string) string {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return base + ".manifest.yaml"
}

// WriteManifest saves m as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
