// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert rewrites an old-format AuditVerse data file into the new
// format: the original records become the current state, a synthesized
// timeline and the quarterly snapshots are attached, and metadata records
// the format version. The original document is backed up first.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/auditverse-convert/internal/timeline"
	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// ErrNotObject is returned when the document or its metadata is not a JSON object.
var ErrNotObject = errors.New("not a JSON object")

// now is the conversion clock. Tests override it for a fixed converted_date.
var now = time.Now

// Summary holds the counts reported after a conversion run.
type Summary struct {
	Risks         int
	Controls      int
	Audits        int
	Relationships int
	Events        int
	Snapshots     int
}

// Run converts cfg.DataFile in place: it loads the old-format document,
// builds the new-format document, writes the untouched input to
// cfg.BackupFile, then overwrites cfg.DataFile. Progress lines and the
// final summary are written to w. Any load or write failure aborts the
// run; if the overwrite fails after the backup succeeded, the backup is
// left in place.
func Run(cfg types.ConvertConfig, logger *zap.Logger, w io.Writer) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fmt.Fprintf(w, "Loading old format data from %s...\n", cfg.DataFile)
	in, err := Load(cfg.DataFile)
	if err != nil {
		return Summary{}, err
	}

	fmt.Fprintln(w, "Converting to new format...")
	doc, err := Build(in.Object, logger, now())
	if err != nil {
		return Summary{}, err
	}

	fmt.Fprintf(w, "Generated %d timeline events\n", len(doc.Timeline.Events))
	fmt.Fprintf(w, "Generated %d snapshots\n", len(doc.Timeline.Snapshots))

	fmt.Fprintf(w, "Backing up old file to %s...\n", cfg.BackupFile)
	if err := WriteBackup(cfg.BackupFile, in.Raw); err != nil {
		return Summary{}, err
	}

	fmt.Fprintf(w, "Writing new format to %s...\n", cfg.DataFile)
	if err := WriteDocument(cfg.DataFile, doc); err != nil {
		return Summary{}, err
	}

	summary := Summarize(doc)
	logger.Info("conversion complete",
		zap.String("data_file", cfg.DataFile),
		zap.Int("events", summary.Events))

	fmt.Fprintln(w, "Conversion complete.")
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  - Risks: %d\n", summary.Risks)
	fmt.Fprintf(w, "  - Controls: %d\n", summary.Controls)
	fmt.Fprintf(w, "  - Audits: %d\n", summary.Audits)
	fmt.Fprintf(w, "  - Relationships: %d\n", summary.Relationships)
	fmt.Fprintf(w, "  - Timeline events: %d\n", summary.Events)
	fmt.Fprintf(w, "  - Snapshots: %d\n", summary.Snapshots)

	return summary, nil
}

// Build synthesizes the timeline for input and assembles the new-format
// document stamped with convertedAt.
func Build(input types.Object, logger *zap.Logger, convertedAt time.Time) (types.Document, error) {
	events := timeline.NewSynthesizer(logger).Synthesize(input)
	return Assemble(input, events, timeline.Snapshots(), convertedAt)
}

// Summarize counts the current-state collections and timeline entries of doc.
func Summarize(doc types.Document) Summary {
	return Summary{
		Risks:         countMembers(doc.Current, types.KeyRisks),
		Controls:      countMembers(doc.Current, types.KeyControls),
		Audits:        countMembers(doc.Current, types.KeyAudits),
		Relationships: countMembers(doc.Current, types.KeyRelationships),
		Events:        len(doc.Timeline.Events),
		Snapshots:     len(doc.Timeline.Snapshots),
	}
}

// countMembers returns the length of the array (or object) stored under key.
func countMembers(o types.Object, key string) int {
	raw, ok := o.Get(key)
	if !ok || types.IsNull(raw) {
		return 0
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list)
	}
	var obj types.Object
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj)
	}
	return 0
}
