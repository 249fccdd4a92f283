// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package replay

import (
	"fmt"
	"time"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// FormatResult reports whether a document has the new-format shape.
type FormatResult struct {
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors" yaml:"errors"`
}

// TimelineReport reports problems found in a document's timeline.
// Errors make the document invalid; warnings do not.
type TimelineReport struct {
	Valid      bool     `json:"valid" yaml:"valid"`
	Errors     []string `json:"errors" yaml:"errors"`
	Warnings   []string `json:"warnings" yaml:"warnings"`
	EventCount int      `json:"event_count" yaml:"event_count"`
}

// ValidateFormat checks that raw is an object with a current object and a
// timeline object holding events and snapshots lists. A missing current or
// timeline stops the check early.
func ValidateFormat(raw []byte) FormatResult {
	res := FormatResult{Errors: []string{}}

	var doc map[string]any
	if err := decode(raw, &doc); err != nil || doc == nil {
		res.Errors = append(res.Errors, "Data must be an object")
		return res
	}
	if _, ok := doc["current"].(map[string]any); !ok {
		res.Errors = append(res.Errors, `Data must have a "current" object containing current state`)
		return res
	}
	tl, ok := doc["timeline"].(map[string]any)
	if !ok {
		res.Errors = append(res.Errors, `Data must have a "timeline" object`)
		return res
	}
	if _, ok := tl["events"].([]any); !ok {
		res.Errors = append(res.Errors, `Timeline must have an "events" array`)
	}
	if _, ok := tl["snapshots"].([]any); !ok {
		res.Errors = append(res.Errors, `Timeline must have a "snapshots" array`)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// ValidateTimeline checks every timeline event for a date, a type, and
// either an id or a relationship. Out-of-order dates, a missing timeline,
// and a format_version other than the current one are warnings.
func ValidateTimeline(raw []byte) (TimelineReport, error) {
	report := TimelineReport{Errors: []string{}, Warnings: []string{}}

	var doc map[string]any
	if err := decode(raw, &doc); err != nil {
		return report, fmt.Errorf("decoding document: %w", err)
	}

	md, _ := doc[types.KeyMetadata].(map[string]any)
	if v := IDString(md[types.KeyFormatVersion]); v != types.FormatVersion {
		report.Warnings = append(report.Warnings, fmt.Sprintf("format_version is %q, expected %q", v, types.FormatVersion))
	}

	tl, ok := doc["timeline"].(map[string]any)
	if !ok {
		report.Warnings = append(report.Warnings, "No timeline data present")
		report.Valid = len(report.Errors) == 0
		return report, nil
	}
	events, _ := tl["events"].([]any)
	report.EventCount = len(events)

	for i, item := range events {
		event, ok := item.(map[string]any)
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("Event %d: Not an object", i))
			continue
		}
		if missing(event["date"]) {
			report.Errors = append(report.Errors, fmt.Sprintf("Event %d: Missing date", i))
		}
		if missing(event["type"]) {
			report.Errors = append(report.Errors, fmt.Sprintf("Event %d: Missing type", i))
		}
		if missing(event["id"]) && missing(event["relationship"]) {
			report.Errors = append(report.Errors, fmt.Sprintf("Event %d: Missing id or relationship", i))
		}
	}

	var prev time.Time
	for i, item := range events {
		event, _ := item.(map[string]any)
		s, _ := event["date"].(string)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			continue
		}
		if !prev.IsZero() && t.Before(prev) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Events not in chronological order at index %d", i))
			break
		}
		prev = t
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

func missing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
