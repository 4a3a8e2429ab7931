// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire runs the record acquisition pipeline: one bounded search,
// batched fetches of the returned identifiers, and per-record field
// extraction into an ordered, capped list of normalized records.
//
// Only search and fetch failures end a run. Records that cannot be
// extracted are skipped and show up only in the counts.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pdiddy/medsft/internal/entrez"
	"github.com/pdiddy/medsft/internal/extract"
	"github.com/pdiddy/medsft/pkg/types"
)

const (
	DefaultMaxArticles = 1000
	DefaultBatchSize   = 200
)

// Searcher returns identifiers for a query, at most maxResults of them.
type Searcher interface {
	Search(ctx context.Context, term string, maxResults int) ([]string, error)
}

// Fetcher returns raw records for a batch of identifiers.
type Fetcher interface {
	Fetch(ctx context.Context, ids []string) ([]*types.RawRecord, error)
}

// Source is a literature database that can both search and fetch.
// *entrez.Client implements it.
type Source interface {
	Searcher
	Fetcher
}

// State is a pipeline phase.
type State string

const (
	StateInit       State = "init"
	StateSearching  State = "searching"
	StateFetching   State = "fetching"
	StateExtracting State = "extracting"
	StateCapped     State = "capped"
	StateExhausted  State = "exhausted"
	StateDone       State = "done"
)

// Result summarizes one acquisition run.
type Result struct {
	// RunID identifies the run in manifests and the corpus index.
	RunID string

	// Query is the search term sent to the source.
	Query string

	// Records are the normalized records in insertion order.
	Records []types.NormalizedRecord

	// Identifiers is the number of identifiers the search returned.
	Identifiers int

	// Fetched is the number of raw records received from the source.
	Fetched int

	// Skipped is the number of raw records that were unusable.
	Skipped int

	// Final is StateCapped or StateExhausted.
	Final State
}

// Pipeline runs a single acquisition. It is not safe for concurrent use;
// create one per run.
type Pipeline struct {
	source  Source
	cfg     types.AcquisitionConfig
	extract func(*types.RawRecord) extract.Result
	logger  *slog.Logger
	state   State
}

// NewPipeline returns a Pipeline with defaults applied to empty config
// fields. A nil logger discards log output.
func NewPipeline(source Source, cfg types.AcquisitionConfig, logger *slog.Logger) *Pipeline {
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = DefaultMaxArticles
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:  source,
		cfg:     cfg,
		extract: extract.Extract,
		logger:  logger,
		state:   StateInit,
	}
}

// State returns the pipeline's current phase.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) transition(s State) {
	p.logger.Debug("pipeline state", "from", p.state, "to", s)
	p.state = s
}

// Run searches, fetches, and extracts until the cap is reached or the
// identifiers are exhausted. When OutputPath is set the records and a run
// manifest are written before Run returns. When Run returns an error no
// output file is left behind.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if p.state != StateInit {
		return Result{}, fmt.Errorf("pipeline already run (state %s)", p.state)
	}

	res, err := p.collect(ctx)
	if err != nil {
		return Result{}, err
	}

	if p.cfg.OutputPath != "" {
		if err := WriteRecords(p.cfg.OutputPath, res.Records); err != nil {
			return Result{}, err
		}
		if err := WriteManifest(ManifestPath(p.cfg.OutputPath), NewManifest(res, p.cfg)); err != nil {
			os.Remove(p.cfg.OutputPath)
			return Result{}, fmt.Errorf("writing manifest: %w", err)
		}
	}
	p.transition(StateDone)

	p.logger.Info("acquisition complete",
		"run_id", res.RunID,
		"records", len(res.Records),
		"skipped", res.Skipped,
		"final_state", res.Final,
	)
	return res, nil
}

func (p *Pipeline) collect(ctx context.Context) (Result, error) {
	maxArticles := p.cfg.MaxArticles
	res := Result{
		RunID: uuid.NewString(),
		Query: entrez.DateQuery(p.cfg.StartDate, p.cfg.EndDate),
	}

	p.transition(StateSearching)
	ids, err := p.source.Search(ctx, res.Query, maxArticles)
	if err != nil {
		return Result{}, fmt.Errorf("searching: %w", err)
	}
	res.Identifiers = len(ids)
	res.Records = make([]types.NormalizedRecord, 0, min(len(ids), maxArticles))
	p.logger.Info("search complete", "query", res.Query, "identifiers", len(ids))

	for start := 0; start < len(ids); start += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		end := min(start+p.cfg.BatchSize, len(ids))
		p.transition(StateFetching)
		raws, err := p.source.Fetch(ctx, ids[start:end])
		if err != nil {
			return Result{}, fmt.Errorf("fetching identifiers %d-%d: %w", start+1, end, err)
		}
		res.Fetched += len(raws)
		p.logger.Debug("batch fetched", "requested", end-start, "received", len(raws))

		p.transition(StateExtracting)
		if p.extractBatch(raws, &res, maxArticles) {
			p.transition(StateCapped)
			res.Final = StateCapped
			return res, nil
		}
	}

	p.transition(StateExhausted)
	res.Final = StateExhausted
	return res, nil
}

// extractBatch appends usable records from raws to res and reports whether
// the cap was reached. Records after the one that reaches the cap are not
// examined.
func (p *Pipeline) extractBatch(raws []*types.RawRecord, res *Result, maxArticles int) bool {
	for i, raw := range raws {
		r := p.extract(raw)
		if !r.OK {
			res.Skipped++
			p.logger.Debug("skipping record", "position", i, "reason", r.Reason)
			continue
		}
		res.Records = append(res.Records, r.Record)
		if len(res.Records) == maxArticles {
			return true
		}
	}
	return false
}
