// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntityID identifies an old-format record. Source files use strings, but
// numeric identifiers are accepted and kept in their literal form.
type EntityID string

// UnmarshalJSON accepts a JSON string or number.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if IsNull(data) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = EntityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = EntityID(n.String())
		return nil
	}
	return fmt.Errorf("entity id must be a string or number, got %s", data)
}

// Risk holds the fields of an old-format risk record that drive rating
// history synthesis. Residual values stay raw so the final event reports
// them exactly as recorded.
type Risk struct {
	ID                 EntityID        `json:"id"`
	InherentRating     *float64        `json:"inherent_rating"`
	InherentLikelihood *float64        `json:"inherent_likelihood"`
	ResidualRating     json.RawMessage `json:"residual_rating"`
	ResidualLikelihood json.RawMessage `json:"residual_likelihood"`
	ResidualSeverity   json.RawMessage `json:"residual_severity"`

	// CreatedDate and LastReviewed are raw so an absent field (defaulted)
	// can be told apart from a null or malformed one (skipped).
	CreatedDate  json.RawMessage `json:"created_date"`
	LastReviewed json.RawMessage `json:"last_reviewed"`
}

// Audit holds the fields of an old-format audit record.
type Audit struct {
	ID            EntityID        `json:"id"`
	DatePerformed json.RawMessage `json:"date_performed"`
	Status        json.RawMessage `json:"status"`
}

// Issue holds the fields of an old-format issue record used for lifecycle
// events. The full payload is carried separately.
type Issue struct {
	ID     EntityID `json:"id"`
	Status any      `json:"status"`
}

// Entity is the minimal view of a control or incident record.
type Entity struct {
	ID EntityID `json:"id"`
}
