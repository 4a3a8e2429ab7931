// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/medsft/pkg/types"
)

// QueryOptions holds parameters for corpus queries.
type QueryOptions struct {
	// Text matches case-insensitively against title and abstract.
	Text string

	// Year filters by publication year.
	Year string

	// RunID restricts results to one ingested run.
	RunID string

	// MaxResults limits result count. Zero uses the store default; a
	// negative value means no limit.
	MaxResults int
}

// IsEmpty reports whether the query has no search text or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Year == "" && q.RunID == ""
}

// Entry is a stored record with its run and position.
type Entry struct {
	types.NormalizedRecord `yaml:",inline"`

	RunID    string `json:"run_id" yaml:"run_id"`
	Position int    `json:"position" yaml:"position"`
}

// Retrieve returns records matching opts, ordered by run ingestion time
// and then by position within the run.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.run_id, r.position, r.title, r.abstract, r.year, r.month, r.day
		FROM records r
		JOIN runs ON runs.id = r.run_id
		WHERE 1=1`)

	if opts.Text != "" {
		pattern := "%" + escapeLike(strings.ToLower(opts.Text)) + "%"
		qb.WriteString(` AND (lower(r.title) LIKE ? ESCAPE '\' OR lower(r.abstract) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if opts.Year != "" {
		qb.WriteString(` AND r.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.RunID != "" {
		qb.WriteString(` AND r.run_id = ?`)
		args = append(args, opts.RunID)
	}

	qb.WriteString(` ORDER BY runs.ingested_at, r.run_id, r.position`)
	if maxResults > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, maxResults)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.RunID, &e.Position, &e.ArticleTitle, &e.ArticleAbstract,
			&e.PubDate.Year, &e.PubDate.Month, &e.PubDate.Day,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
