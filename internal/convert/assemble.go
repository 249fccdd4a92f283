// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// Assemble builds the new-format document. current is input without its
// metadata member, with an empty relationships list appended when absent.
// metadata is the input metadata (empty when absent or null) with
// format_version and converted_date set. input itself is not modified.
func Assemble(input types.Object, events []types.Event, snapshots []types.Snapshot, convertedAt time.Time) (types.Document, error) {
	metadata := types.Object{}
	if raw, ok := input.Get(types.KeyMetadata); ok && !types.IsNull(raw) {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return types.Document{}, fmt.Errorf("reading metadata: %w (%v)", ErrNotObject, err)
		}
	}
	metadata = metadata.
		With(types.KeyFormatVersion, stringValue(types.FormatVersion)).
		With(types.KeyConvertedDate, stringValue(convertedAt.UTC().Format(time.RFC3339)))

	current := input.Without(types.KeyMetadata)
	if !current.Has(types.KeyRelationships) {
		current = current.With(types.KeyRelationships, json.RawMessage("[]"))
	}

	if events == nil {
		events = []types.Event{}
	}
	if snapshots == nil {
		snapshots = []types.Snapshot{}
	}

	return types.Document{
		Current: current,
		Timeline: types.Timeline{
			Events:    events,
			Snapshots: snapshots,
		},
		Metadata: metadata,
	}, nil
}

func stringValue(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
