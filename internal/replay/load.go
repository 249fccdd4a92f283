// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// ReadDocument reads a new-format document from path. The raw bytes are
// returned alongside for validation.
func ReadDocument(path string) (types.Document, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc types.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.Document{}, raw, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, raw, nil
}
