// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the auditverse-convert pipeline:
// the order-preserving JSON object used for old-format documents, the old-format
// record shapes, and the new-format document with its synthesized timeline.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Member is one key/value pair of a JSON object.
type Member struct {
	Key   string
	Value json.RawMessage
}

// Object is a JSON object that keeps its members in source order across
// decode and encode. Values stay raw so payloads round-trip byte for byte
// (modulo whitespace).
type Object []Member

// Get returns the raw value stored under key.
func (o Object) Get(key string) (json.RawMessage, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// With returns a copy of o where key holds value. An existing member keeps
// its position; a new one is appended.
func (o Object) With(key string, value json.RawMessage) Object {
	out := make(Object, len(o), len(o)+1)
	copy(out, o)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Member{Key: key, Value: value})
}

// Without returns a copy of o with key removed.
func (o Object) Without(key string) Object {
	out := make(Object, 0, len(o))
	for _, m := range o {
		if m.Key != key {
			out = append(out, m)
		}
	}
	return out
}

// Keys returns member names in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// UnmarshalJSON decodes a JSON object, preserving member order. Duplicate
// keys keep the position of the first occurrence and the value of the last.
// A null leaves o unchanged.
func (o *Object) UnmarshalJSON(data []byte) error {
	if IsNull(data) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %s", describeToken(tok))
	}

	out := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding member %q: %w", key, err)
		}
		out = out.With(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = out
	return nil
}

// MarshalJSON encodes the object with its members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(m.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(m.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		if v == '[' {
			return "array"
		}
		return string(v)
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Document is the new-format data file: a present-state mirror of the old
// format, the synthesized timeline, and metadata.
type Document struct {
	Current  Object   `json:"current"`
	Timeline Timeline `json:"timeline"`
	Metadata Object   `json:"metadata"`
}

// Timeline holds synthesized events and the quarterly snapshot markers.
type Timeline struct {
	Events    []Event    `json:"events"`
	Snapshots []Snapshot `json:"snapshots"`
}

// FormatVersion is the metadata format_version written by the converter.
const FormatVersion = "2.0"

// Metadata keys written during conversion.
const (
	KeyMetadata      = "metadata"
	KeyRelationships = "relationships"
	KeyFormatVersion = "format_version"
	KeyConvertedDate = "converted_date"
)

// Old-format top-level collections read by the timeline synthesizer.
const (
	KeyRisks     = "risks"
	KeyControls  = "controls"
	KeyAudits    = "audits"
	KeyIssues    = "issues"
	KeyIncidents = "incidents"
)
