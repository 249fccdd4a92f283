// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists converted timelines in a SQLite index so events
// can be searched and filtered across documents without reloading them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

const (
	dbFile            = "timeline.db"
	defaultMaxResults = 50
)

// now is overridden in tests.
var now = time.Now

// Store manages the timeline index database.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the timeline index at indexDir/timeline.db and
// creates the schema if it does not exist.
func NewStore(cfg types.TimelineStoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		indexDir:   cfg.IndexDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source TEXT PRIMARY KEY,
			converted_date TEXT,
			indexed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES ingest_status(source) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_type TEXT,
			entity_id TEXT,
			payload TEXT NOT NULL,
			UNIQUE(source, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_type, entity_id)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			source TEXT NOT NULL REFERENCES ingest_status(source) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			date TEXT NOT NULL,
			label TEXT NOT NULL,
			summary TEXT,
			PRIMARY KEY(source, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed   int
	Updated   int
	Skipped   int
	Events    int
	Snapshots int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped
}

// Ingest indexes doc under source. A document whose converted_date matches
// the one recorded for source is skipped; otherwise every row previously
// indexed for source is replaced in a single transaction. On a change
// export.yaml is rewritten.
func (s *Store) Ingest(ctx context.Context, source string, doc types.Document, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary
	convertedDate := metadataString(doc.Metadata, types.KeyConvertedDate)

	var stored sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT converted_date FROM ingest_status WHERE source = ?`, source,
	).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return summary, fmt.Errorf("reading ingest status: %w", err)
	}
	isUpdate := err == nil

	if isUpdate && convertedDate != "" && stored.String == convertedDate {
		fmt.Fprintf(w, "skipped %s\n", source)
		summary.Skipped++
		return summary, nil
	}

	if err := s.ingestDocument(ctx, source, convertedDate, doc); err != nil {
		return summary, fmt.Errorf("indexing %s: %w", source, err)
	}
	summary.Events = len(doc.Timeline.Events)
	summary.Snapshots = len(doc.Timeline.Snapshots)

	if isUpdate {
		fmt.Fprintf(w, "updated %s (%d events)\n", source, summary.Events)
		summary.Updated++
	} else {
		fmt.Fprintf(w, "indexed %s (%d events)\n", source, summary.Events)
		summary.Indexed++
	}

	if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
		fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
	}

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, source, convertedDate string, doc types.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"events", "snapshots"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE source = ?`, source); err != nil {
			return fmt.Errorf("deleting old %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source, converted_date, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			converted_date=excluded.converted_date, indexed_at=excluded.indexed_at`,
		source, convertedDate, types.Timestamp(now()),
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	eventStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (source, seq, date, type, entity_type, entity_id, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer eventStmt.Close()

	for i, e := range doc.Timeline.Events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding event %d: %w", i, err)
		}
		_, err = eventStmt.ExecContext(ctx,
			source, i, e.Date, string(e.Type), string(e.EntityType), string(e.ID), string(payload),
		)
		if err != nil {
			return fmt.Errorf("inserting event %d: %w", i, err)
		}
	}

	snapStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (source, seq, date, label, summary) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer snapStmt.Close()

	for i, snap := range doc.Timeline.Snapshots {
		if _, err := snapStmt.ExecContext(ctx, source, i, snap.Date, snap.Label, snap.Summary); err != nil {
			return fmt.Errorf("inserting snapshot %s: %w", snap.Label, err)
		}
	}

	return tx.Commit()
}

// Snapshots returns the snapshot markers indexed for source, or for every
// source when source is empty, ordered by date.
func (s *Store) Snapshots(ctx context.Context, source string) ([]types.Snapshot, error) {
	query := `SELECT date, label, summary FROM snapshots`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY date, source, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []types.Snapshot
	for rows.Next() {
		var (
			snap    types.Snapshot
			summary sql.NullString
		)
		if err := rows.Scan(&snap.Date, &snap.Label, &summary); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		snap.Summary = summary.String
		out = append(out, snap)
	}
	return out, rows.Err()
}

// TypeCount is the number of indexed events of one type.
type TypeCount struct {
	Type  types.EventType `json:"type" yaml:"type"`
	Count int             `json:"count" yaml:"count"`
}

// Stats returns the number of indexed events per event type, most frequent
// first.
func (s *Store) Stats(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, count(*) AS n FROM events GROUP BY type ORDER BY n DESC, type`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var (
			tc        TypeCount
			eventType string
		)
		if err := rows.Scan(&eventType, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		tc.Type = types.EventType(eventType)
		out = append(out, tc)
	}
	return out, rows.Err()
}

func metadataString(md types.Object, key string) string {
	raw, ok := md.Get(key)
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}
