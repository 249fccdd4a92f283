// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// QueryOptions holds parameters for timeline queries.
type QueryOptions struct {
	// Query is a case-insensitive substring matched against the event JSON.
	Query string

	// Type filters by event type.
	Type types.EventType

	// EntityType filters by subject kind.
	EntityType types.EntityType

	// EntityID filters by subject id.
	EntityID string

	// From and To bound the event date, inclusive. Zero values are open.
	From time.Time
	To   time.Time

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && q.EntityType == "" && q.EntityID == "" &&
		q.From.IsZero() && q.To.IsZero()
}

// QueryResult is an indexed event with the source it was indexed from.
type QueryResult struct {
	Source string `json:"source" yaml:"source"`
	types.Event `yaml:",inline"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Retrieve returns indexed events matching opts, ordered by date and then
// by position in their source timeline.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT source, payload FROM events WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND payload LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(opts.Query)+"%")
	}
	if opts.Type != "" {
		qb.WriteString(` AND type = ?`)
		args = append(args, string(opts.Type))
	}
	if opts.EntityType != "" {
		qb.WriteString(` AND entity_type = ?`)
		args = append(args, string(opts.EntityType))
	}
	if opts.EntityID != "" {
		qb.WriteString(` AND entity_id = ?`)
		args = append(args, opts.EntityID)
	}
	if !opts.From.IsZero() {
		qb.WriteString(` AND date >= ?`)
		args = append(args, types.Timestamp(opts.From))
	}
	if !opts.To.IsZero() {
		qb.WriteString(` AND date <= ?`)
		args = append(args, types.Timestamp(opts.To))
	}

	qb.WriteString(` ORDER BY date, source, seq LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying timeline index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr      QueryResult
			payload string
		)
		if err := rows.Scan(&qr.Source, &payload); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &qr.Event); err != nil {
			return nil, fmt.Errorf("decoding event from %s: %w", qr.Source, err)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}
