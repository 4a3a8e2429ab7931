// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sft converts acquired records into instruction-tuning pairs.
//
// Each record's title becomes the input and its abstract the output.
// Records whose trimmed abstract is 50 characters or shorter, or whose
// trimmed title is 5 characters or shorter, are dropped without error.
package sft

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/medsft/pkg/types"
)

// Instruction is the fixed instruction attached to every pair.
const Instruction = "Summarize the following medical research title into a professional academic abstract."

const (
	minAbstractLen = 50
	minTitleLen    = 5
)

// Keep reports whether a trimmed title and abstract are long enough to
// form a training pair. Lengths are counted in characters.
func Keep(title, abstract string) bool {
	return utf8.RuneCountInString(abstract) > minAbstractLen &&
		utf8.RuneCountInString(title) > minTitleLen
}

// Transform maps records to training pairs in input order.
func Transform(records []types.NormalizedRecord) []types.TrainingPair {
	pairs := make([]types.TrainingPair, 0, len(records))
	for _, r := range records {
		title := strings.TrimSpace(r.ArticleTitle)
		abstract := strings.TrimSpace(r.ArticleAbstract)
		if !Keep(title, abstract) {
			continue
		}
		pairs = append(pairs, types.TrainingPair{
			Instruction: Instruction,
			Input:       title,
			Output:      abstract,
		})
	}
	return pairs
}

// ReadRecords loads an acquisition output file. Entries missing a title or
// abstract read as empty strings and are later filtered out.
func ReadRecords(path string) ([]types.NormalizedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []types.NormalizedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

// EncodePairs writes pairs as a JSON array with two-space indentation and
// literal non-ASCII text.
func EncodePairs(w io.Writer, pairs []types.TrainingPair) error {
	if pairs == nil {
		pairs = []types.TrainingPair{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(pairs)
}

// WriteFile writes pairs to path. The parent directory must exist.
func WriteFile(path string, pairs []types.TrainingPair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodePairs(f, pairs); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Summary holds counts from one transform run.
type Summary struct {
	Read    int
	Written int
}

// Dropped returns the number of records that failed the length filter.
func (s Summary) Dropped() int {
	return s.Read - s.Written
}

// Run reads cfg.InputPath, transforms it, creates the output directory,
// and writes cfg.OutputPath.
func Run(cfg types.SFTConfig) (Summary, error) {
	records, err := ReadRecords(cfg.InputPath)
	if err != nil {
		return Summary{}, err
	}
	pairs := Transform(records)

	if dir := filepath.Dir(cfg.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := WriteFile(cfg.OutputPath, pairs); err != nil {
		return Summary{}, err
	}
	return Summary{Read: len(records), Written: len(pairs)}, nil
}
