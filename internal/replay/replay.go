// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package replay reconstructs the state of a new-format document at a point
// in time by applying its timeline events, in chronological order, to a copy
// of the current state. It also validates that a document has the new-format
// shape and a well-formed timeline.
package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

const currentKey = "current"

// State is a decoded current-state document. Numbers are json.Number.
type State = map[string]any

// Filter replays timeline events over a document's current state. Results
// are cached per target time; callers must not modify returned states.
type Filter struct {
	current   []byte
	events    []types.Event
	snapshots []types.Snapshot
	log       *zap.Logger
	cache     map[string]State
}

// New returns a Filter over doc. A nil logger discards diagnostics.
func New(doc types.Document, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	current, err := json.Marshal(doc.Current)
	if err != nil {
		return nil, fmt.Errorf("encoding current state: %w", err)
	}
	return &Filter{
		current:   current,
		events:    doc.Timeline.Events,
		snapshots: doc.Timeline.Snapshots,
		log:       logger,
		cache:     make(map[string]State),
	}, nil
}

// StateAt returns the state after applying every event dated at or before
// at. The zero time returns the current state unchanged.
func (f *Filter) StateAt(at time.Time) (State, error) {
	key := currentKey
	if !at.IsZero() {
		key = at.UTC().Format(time.RFC3339Nano)
	}
	if s, ok := f.cache[key]; ok {
		return s, nil
	}

	var state State
	if err := decode(f.current, &state); err != nil {
		return nil, fmt.Errorf("decoding current state: %w", err)
	}
	if state == nil {
		state = State{}
	}

	if !at.IsZero() {
		for _, e := range f.eventsUpTo(at) {
			f.apply(state, e)
		}
	}

	f.cache[key] = state
	return state, nil
}

type datedEvent struct {
	at    time.Time
	event types.Event
}

// eventsUpTo returns the events dated at or before at, oldest first.
// Events whose date does not parse are never applied.
func (f *Filter) eventsUpTo(at time.Time) []types.Event {
	var dated []datedEvent
	for _, e := range f.events {
		t, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			f.log.Debug("ignoring event with unparseable date", zap.String("date", e.Date), zap.String("id", string(e.ID)))
			continue
		}
		if !t.After(at) {
			dated = append(dated, datedEvent{at: t, event: e})
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].at.Before(dated[j].at)
	})

	out := make([]types.Event, len(dated))
	for i, d := range dated {
		out[i] = d.event
	}
	return out
}

func (f *Filter) apply(state State, e types.Event) {
	switch e.Type {
	case types.EventRiskRatingChange,
		types.EventControlStatusChange,
		types.EventAuditStatusChange,
		types.EventIssueStatusChange:
		f.applyChange(state, e)

	case types.EventControlAdded,
		types.EventIssueAdded,
		types.EventIncidentAdded,
		types.EventAuditAdded,
		types.EventRiskAdded,
		types.EventStandardAdded,
		types.EventBusinessUnitAdded:
		f.applyAdd(state, e)

	case types.EventEntityRemoved:
		f.applyRemoval(state, e)

	case types.EventRelationshipAdded:
		f.applyRelationshipAdd(state, e)

	case types.EventRelationshipRemoved:
		f.applyRelationshipRemoval(state, e)

	default:
		f.log.Warn("unknown event type", zap.String("type", string(e.Type)))
	}
}

func (f *Filter) applyChange(state State, e types.Event) {
	name := CollectionName(e.EntityType)
	list, ok := state[name].([]any)
	if !ok {
		f.log.Warn("entity collection not found", zap.String("collection", name))
		return
	}

	entity := findEntity(list, string(e.ID))
	if entity == nil {
		f.log.Warn("entity not found", zap.String("id", string(e.ID)), zap.String("collection", name))
		return
	}
	if len(e.Changes) == 0 {
		return
	}
	for _, m := range e.Changes {
		var v any
		if err := decode(m.Value, &v); err != nil {
			f.log.Warn("skipping malformed change", zap.String("id", string(e.ID)), zap.String("field", m.Key), zap.Error(err))
			continue
		}
		entity[m.Key] = v
	}
}

func (f *Filter) applyAdd(state State, e types.Event) {
	name := CollectionName(e.EntityType)
	var list []any
	if existing, present := state[name]; present && existing != nil {
		l, ok := existing.([]any)
		if !ok {
			f.log.Warn("entity collection is not a list", zap.String("collection", name))
			return
		}
		list = l
	}
	if findEntity(list, string(e.ID)) != nil {
		state[name] = ensureList(list)
		return
	}
	if types.IsNull(e.Data) {
		f.log.Warn("add event without data", zap.String("id", string(e.ID)), zap.String("type", string(e.Type)))
		state[name] = ensureList(list)
		return
	}

	var payload any
	if err := decode(e.Data, &payload); err != nil {
		f.log.Warn("skipping malformed add event", zap.String("id", string(e.ID)), zap.Error(err))
		return
	}
	state[name] = append(list, payload)
}

func (f *Filter) applyRemoval(state State, e types.Event) {
	name := CollectionName(e.EntityType)
	list, ok := state[name].([]any)
	if !ok {
		return
	}
	id := string(e.ID)

	kept := make([]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok && IDString(m["id"]) == id {
			continue
		}
		kept = append(kept, item)
	}
	state[name] = kept

	rels, ok := state[types.KeyRelationships].([]any)
	if !ok {
		return
	}
	keptRels := make([]any, 0, len(rels))
	for _, r := range rels {
		if m, ok := r.(map[string]any); ok && (IDString(m["source"]) == id || IDString(m["target"]) == id) {
			continue
		}
		keptRels = append(keptRels, r)
	}
	state[types.KeyRelationships] = keptRels
}

func (f *Filter) applyRelationshipAdd(state State, e types.Event) {
	rel, ok := f.relationship(e)
	if !ok {
		return
	}
	rels, _ := state[types.KeyRelationships].([]any)
	for _, r := range rels {
		if sameRelationship(r, rel) {
			state[types.KeyRelationships] = rels
			return
		}
	}
	state[types.KeyRelationships] = append(ensureList(rels), rel)
}

func (f *Filter) applyRelationshipRemoval(state State, e types.Event) {
	rel, ok := f.relationship(e)
	if !ok {
		return
	}
	rels, ok := state[types.KeyRelationships].([]any)
	if !ok {
		return
	}
	kept := make([]any, 0, len(rels))
	for _, r := range rels {
		if !sameRelationship(r, rel) {
			kept = append(kept, r)
		}
	}
	state[types.KeyRelationships] = kept
}

func (f *Filter) relationship(e types.Event) (map[string]any, bool) {
	var rel map[string]any
	if err := decode(e.Relationship, &rel); err != nil || rel == nil {
		f.log.Warn("relationship event without relationship", zap.String("type", string(e.Type)))
		return nil, false
	}
	return rel, true
}

func sameRelationship(item any, rel map[string]any) bool {
	m, ok := item.(map[string]any)
	if !ok {
		return false
	}
	return IDString(m["source"]) == IDString(rel["source"]) &&
		IDString(m["target"]) == IDString(rel["target"]) &&
		IDString(m["type"]) == IDString(rel["type"])
}

// Events returns every timeline event in document order.
func (f *Filter) Events() []types.Event {
	return f.events
}

// EventsInRange returns the events dated within [from, to], in document order.
func (f *Filter) EventsInRange(from, to time.Time) []types.Event {
	var out []types.Event
	for _, e := range f.events {
		t, err := time.Parse(time.RFC3339, e.Date)
		if err != nil {
			continue
		}
		if !t.Before(from) && !t.After(to) {
			out = append(out, e)
		}
	}
	return out
}

// Snapshots returns the timeline snapshot markers.
func (f *Filter) Snapshots() []types.Snapshot {
	return f.snapshots
}

// ClearCache drops every cached state.
func (f *Filter) ClearCache() {
	f.cache = make(map[string]State)
}

// CacheSize returns the number of cached states.
func (f *Filter) CacheSize() int {
	return len(f.cache)
}

// collectionNames maps entity types whose collection is not simply the
// type name plus "s".
var collectionNames = map[types.EntityType]string{
	"risk":         "risks",
	"control":      "controls",
	"issue":        "issues",
	"incident":     "incidents",
	"audit":        "audits",
	"standard":     "standards",
	"businessUnit": "businessUnits",
	"entity":       "entities",
}

// CollectionName returns the top-level collection holding entities of type t.
func CollectionName(t types.EntityType) string {
	if name, ok := collectionNames[t]; ok {
		return name
	}
	return string(t) + "s"
}

// IDString renders a decoded identifier for comparison with event ids.
func IDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

func findEntity(list []any, id string) map[string]any {
	for _, item := range list {
		if m, ok := item.(map[string]any); ok && IDString(m["id"]) == id {
			return m
		}
	}
	return nil
}

func ensureList(list []any) []any {
	if list == nil {
		return []any{}
	}
	return list
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Plain converts json.Number values inside v to int64 or float64 so the
// value renders as plain numbers in YAML.
func Plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Plain(val)
		}
		return out
	default:
		return v
	}
}
