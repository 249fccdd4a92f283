// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package timeline fabricates a plausible event history from an old-format
// document. The source data is a static snapshot, so every date here is
// derived either from a record's own dates or from a stable hash of its
// identifier offset against a fixed epoch.
package timeline

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// Synthesis epochs.
var (
	ControlEpoch  = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	IssueEpoch    = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	IncidentEpoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Dates assumed for risks that omit them.
const (
	DefaultCreatedDate  = "2023-01-01"
	DefaultLastReviewed = "2024-12-01"
)

const (
	ratingSettleDays    = 90  // first rating change after creation
	ratingMidpointDays  = 180 // second change after the first
	initialRatingFactor = 0.9
	maxLikelihood       = 10

	controlWindowDays  = 180
	issueWindowDays    = 450
	issueResolveDays   = 30
	issueResolveWindow = 90
	incidentWindowDays = 700
)

var errMissing = errors.New("missing value")

// Synthesizer derives timeline events from old-format records.
type Synthesizer struct {
	log *zap.Logger
}

// NewSynthesizer returns a Synthesizer that reports skipped records to logger.
// A nil logger discards diagnostics.
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{log: logger}
}

// Synthesize returns the events for every risk, control, audit, issue and
// incident in doc, sorted ascending by timestamp. Records that cannot be
// dated are skipped; the sort is stable so same-day events keep source order.
func (s *Synthesizer) Synthesize(doc types.Object) []types.Event {
	events := []types.Event{}

	for _, raw := range s.records(doc, types.KeyRisks) {
		events = append(events, s.riskEvents(raw)...)
	}
	for _, raw := range s.records(doc, types.KeyControls) {
		events = append(events, s.controlEvents(raw)...)
	}
	for _, raw := range s.records(doc, types.KeyAudits) {
		events = append(events, s.auditEvents(raw)...)
	}
	for _, raw := range s.records(doc, types.KeyIssues) {
		events = append(events, s.issueEvents(raw)...)
	}
	for _, raw := range s.records(doc, types.KeyIncidents) {
		events = append(events, s.incidentEvents(raw)...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
	return events
}

// records returns the elements of the array stored under key. Absent and
// null collections are empty.
func (s *Synthesizer) records(doc types.Object, key string) []json.RawMessage {
	raw, ok := doc.Get(key)
	if !ok || types.IsNull(raw) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.Warn("skipping collection: not an array", zap.String("collection", key), zap.Error(err))
		return nil
	}
	return list
}

func (s *Synthesizer) riskEvents(raw json.RawMessage) []types.Event {
	var r types.Risk
	if err := json.Unmarshal(raw, &r); err != nil {
		s.log.Warn("skipping risk: malformed record", zap.Error(err))
		return nil
	}
	if r.ID == "" {
		s.log.Warn("skipping risk: missing id")
		return nil
	}

	created, ok := parseDate(r.CreatedDate, DefaultCreatedDate)
	if !ok {
		s.log.Debug("skipping risk: unparseable created_date", zap.String("id", string(r.ID)))
		return nil
	}
	reviewed, ok := parseDate(r.LastReviewed, DefaultLastReviewed)
	if !ok {
		s.log.Debug("skipping risk: unparseable last_reviewed", zap.String("id", string(r.ID)))
		return nil
	}

	residualRating, errRating := parseNumber(r.ResidualRating)
	residualLikelihood, errLikelihood := parseNumber(r.ResidualLikelihood)
	if r.InherentRating == nil || r.InherentLikelihood == nil ||
		errRating != nil || errLikelihood != nil || len(r.ResidualSeverity) == 0 {
		s.log.Warn("skipping risk: missing or non-numeric rating fields", zap.String("id", string(r.ID)))
		return nil
	}
	inherentRating, inherentLikelihood := *r.InherentRating, *r.InherentLikelihood

	initial := created.AddDate(0, 0, ratingSettleDays)
	events := []types.Event{
		riskChange(r.ID, initial, types.Object{
			{Key: "residual_rating", Value: floatLiteral(inherentRating * initialRatingFactor)},
			{Key: "residual_likelihood", Value: numberLiteral(math.Min(maxLikelihood, inherentLikelihood))},
		}),
	}

	if mid := initial.AddDate(0, 0, ratingMidpointDays); mid.Before(reviewed) {
		events = append(events, riskChange(r.ID, mid, types.Object{
			{Key: "residual_rating", Value: floatLiteral((inherentRating + residualRating) / 2)},
			{Key: "residual_likelihood", Value: numberLiteral(math.Floor((inherentLikelihood + residualLikelihood) / 2))},
		}))
	}

	events = append(events, riskChange(r.ID, reviewed, types.Object{
		{Key: "residual_rating", Value: r.ResidualRating},
		{Key: "residual_likelihood", Value: r.ResidualLikelihood},
		{Key: "residual_severity", Value: r.ResidualSeverity},
	}))
	return events
}

func riskChange(id types.EntityID, at time.Time, changes types.Object) types.Event {
	return types.Event{
		Date:       types.Timestamp(at),
		Type:       types.EventRiskRatingChange,
		EntityType: types.EntityRisk,
		ID:         id,
		Changes:    changes,
	}
}

func (s *Synthesizer) controlEvents(raw json.RawMessage) []types.Event {
	id, ok := s.entityID(types.EntityControl, raw)
	if !ok {
		return nil
	}
	return []types.Event{{
		Date:       types.Timestamp(spread(ControlEpoch, id, controlWindowDays)),
		Type:       types.EventControlAdded,
		EntityType: types.EntityControl,
		ID:         id,
		Data:       raw,
	}}
}

func (s *Synthesizer) auditEvents(raw json.RawMessage) []types.Event {
	var a types.Audit
	if err := json.Unmarshal(raw, &a); err != nil || a.ID == "" {
		return nil
	}

	var performed string
	if err := json.Unmarshal(a.DatePerformed, &performed); err != nil || performed == "" {
		return nil
	}
	at, err := time.Parse(types.DateLayout, performed)
	if err != nil {
		s.log.Debug("skipping audit: unparseable date_performed", zap.String("id", string(a.ID)))
		return nil
	}

	status := a.Status
	if types.IsNull(status) {
		status = json.RawMessage(`"completed"`)
	}
	return []types.Event{{
		Date:       types.Timestamp(at),
		Type:       types.EventAuditStatusChange,
		EntityType: types.EntityAudit,
		ID:         a.ID,
		Changes:    types.Object{{Key: "status", Value: status}},
	}}
}

func (s *Synthesizer) issueEvents(raw json.RawMessage) []types.Event {
	var issue types.Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		s.log.Warn("skipping issue: malformed record", zap.Error(err))
		return nil
	}
	if issue.ID == "" {
		s.log.Warn("skipping issue: missing id")
		return nil
	}

	discovered := spread(IssueEpoch, issue.ID, issueWindowDays)
	events := []types.Event{{
		Date:       types.Timestamp(discovered),
		Type:       types.EventIssueAdded,
		EntityType: types.EntityIssue,
		ID:         issue.ID,
		Data:       raw,
	}}

	if issue.Status == "Closed" {
		resolved := discovered.AddDate(0, 0, issueResolveDays+offsetDays(issue.ID, issueResolveWindow))
		events = append(events, types.Event{
			Date:       types.Timestamp(resolved),
			Type:       types.EventIssueStatusChange,
			EntityType: types.EntityIssue,
			ID:         issue.ID,
			Changes:    types.Object{{Key: "status", Value: json.RawMessage(`"Closed"`)}},
		})
	}
	return events
}

func (s *Synthesizer) incidentEvents(raw json.RawMessage) []types.Event {
	id, ok := s.entityID(types.EntityIncident, raw)
	if !ok {
		return nil
	}
	return []types.Event{{
		Date:       types.Timestamp(spread(IncidentEpoch, id, incidentWindowDays)),
		Type:       types.EventIncidentAdded,
		EntityType: types.EntityIncident,
		ID:         id,
		Data:       raw,
	}}
}

// entityID reads the id of a control or incident record.
func (s *Synthesizer) entityID(kind types.EntityType, raw json.RawMessage) (types.EntityID, bool) {
	var e types.Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		s.log.Warn("skipping record: malformed", zap.String("entity_type", string(kind)), zap.Error(err))
		return "", false
	}
	if e.ID == "" {
		s.log.Warn("skipping record: missing id", zap.String("entity_type", string(kind)))
		return "", false
	}
	return e.ID, true
}

// parseDate parses a YYYY-MM-DD field. An absent field takes fallback; a
// null, non-string, or malformed value reports false.
func parseDate(raw json.RawMessage, fallback string) (time.Time, bool) {
	value := fallback
	if len(raw) > 0 {
		if types.IsNull(raw) {
			return time.Time{}, false
		}
		if err := json.Unmarshal(raw, &value); err != nil {
			return time.Time{}, false
		}
	}
	t, err := time.Parse(types.DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if types.IsNull(raw) {
		return 0, errMissing
	}
	err := json.Unmarshal(raw, &f)
	return f, err
}

// floatLiteral renders f as a JSON number that always carries a fractional
// part (6 → 6.0), matching how derived ratings appear in existing data files.
func floatLiteral(f float64) json.RawMessage {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return json.RawMessage(s)
}

// numberLiteral renders f in its shortest form (9, 6.5).
func numberLiteral(f float64) json.RawMessage {
	return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
}
