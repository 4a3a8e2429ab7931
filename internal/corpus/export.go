// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medsft/internal/acquire"
	"github.com/pdiddy/medsft/pkg/types"
)

// Records returns the normalized records matching opts, without a limit
// unless opts sets one.
func (s *Store) Records(ctx context.Context, opts QueryOptions) ([]types.NormalizedRecord, error) {
	if opts.MaxResults == 0 {
		opts.MaxResults = -1
	}
	entries, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	records := make([]types.NormalizedRecord, len(entries))
	for i, e := range entries {
		records[i] = e.NormalizedRecord
	}
	return records, nil
}

// ExportJSON writes matching records in the acquisition output format, so
// the result can be fed straight to the sft stage.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	records, err := s.Records(ctx, opts)
	if err != nil {
		return err
	}
	return acquire.EncodeRecords(w, records)
}

// ExportYAML writes matching records as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	records, err := s.Records(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
