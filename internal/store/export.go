// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds an indexed event in export form. Event details are
// decoded so they render natively in YAML.
type ExportEntry struct {
	Source       string `json:"source" yaml:"source"`
	Date         string `json:"date" yaml:"date"`
	Type         string `json:"type" yaml:"type"`
	EntityType   string `json:"entityType" yaml:"entityType"`
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Changes      any    `json:"changes,omitempty" yaml:"changes,omitempty"`
	Data         any    `json:"data,omitempty" yaml:"data,omitempty"`
	Relationship any    `json:"relationship,omitempty" yaml:"relationship,omitempty"`
}

const exportLimit = 100000

// ExportYAML writes the index to indexDir/export.yaml. It supports the same
// filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the index to indexDir/export.json. It supports the same
// filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			Source:     r.Source,
			Date:       r.Date,
			Type:       string(r.Type),
			EntityType: string(r.EntityType),
			ID:         string(r.ID),
		}
		if len(r.Changes) > 0 {
			entries[i].Changes = decodeDetail(r.Changes)
		}
		entries[i].Data = decodeDetail(r.Data)
		entries[i].Relationship = decodeDetail(r.Relationship)
	}

	return entries, nil
}

// decodeDetail returns the decoded form of a raw event detail, or nil when
// it is absent.
func decodeDetail(v json.Marshaler) any {
	raw, err := v.MarshalJSON()
	if err != nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
