// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the layout of every timeline timestamp: UTC, second
// precision, Z suffix. Lexicographic order of these strings is chronological.
const TimestampLayout = "2006-01-02T15:04:05Z"

// DateLayout is the layout of old-format record dates.
const DateLayout = "2006-01-02"

// Timestamp formats t as a timeline timestamp.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EventType tags a timeline event.
type EventType string

// Event types emitted by the converter.
const (
	EventRiskRatingChange  EventType = "risk_rating_change"
	EventControlAdded      EventType = "control_added"
	EventAuditStatusChange EventType = "audit_status_change"
	EventIssueAdded        EventType = "issue_added"
	EventIssueStatusChange EventType = "issue_status_change"
	EventIncidentAdded     EventType = "incident_added"
)

// Additional event types understood by state replay. Timelines edited by
// hand or produced by other tools may carry them.
const (
	EventControlStatusChange EventType = "control_status_change"
	EventAuditAdded          EventType = "audit_added"
	EventRiskAdded           EventType = "risk_added"
	EventStandardAdded       EventType = "standard_added"
	EventBusinessUnitAdded   EventType = "business_unit_added"
	EventEntityRemoved       EventType = "entity_removed"
	EventRelationshipAdded   EventType = "relationship_added"
	EventRelationshipRemoved EventType = "relationship_removed"
)

// EntityType names the kind of record an event applies to.
type EntityType string

const (
	EntityRisk     EntityType = "risk"
	EntityControl  EntityType = "control"
	EntityAudit    EntityType = "audit"
	EntityIssue    EntityType = "issue"
	EntityIncident EntityType = "incident"
)

// Event is a timestamped change to one entity. Change events carry a
// partial update in Changes; add events carry a full payload copy in Data.
type Event struct {
	// Date is the event timestamp (TimestampLayout).
	Date string `json:"date" yaml:"date"`

	// Type tags the event.
	Type EventType `json:"type" yaml:"type"`

	// EntityType is the subject kind (risk, control, ...).
	EntityType EntityType `json:"entityType" yaml:"entityType"`

	// ID identifies the subject entity.
	ID EntityID `json:"id,omitempty" yaml:"id,omitempty"`

	// Changes is the partial update applied by change events.
	Changes Object `json:"changes,omitempty" yaml:"-"`

	// Data is the full entity payload of add events.
	Data json.RawMessage `json:"data,omitempty" yaml:"-"`

	// Relationship is the subject of relationship_added/relationship_removed.
	Relationship json.RawMessage `json:"relationship,omitempty" yaml:"-"`
}

// Snapshot is a fixed calendar-quarter marker on the timeline.
type Snapshot struct {
	Date    string `json:"date" yaml:"date"`
	Label   string `json:"label" yaml:"label"`
	Summary string `json:"summary" yaml:"summary"`
}
