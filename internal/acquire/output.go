// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/medsft/pkg/types"
)

// EncodeRecords writes records as an indented JSON array. HTML characters
// and non-ASCII text are written literally.
func EncodeRecords(w io.Writer, records []types.NormalizedRecord) error {
	if records == nil {
		records = []types.NormalizedRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}

// WriteRecords writes records to path through a temporary file in the same
// directory, so an interrupted write never leaves a truncated output. The
// directory must already exist. The file is created with mode 0644.
func WriteRecords(path string, records []types.NormalizedRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encErr := EncodeRecords(tmp, records)
	if encErr == nil {
		encErr = tmp.Chmod(0o644)
	}
	closeErr := tmp.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing records: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadRecords reads a JSON array written by WriteRecords.
func ReadRecords(path string) ([]types.NormalizedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var records []types.NormalizedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records %s: %w", path, err)
	}
	return records, nil
}
