// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// Input is a loaded old-format document. Raw keeps the file contents for
// the backup write.
type Input struct {
	Raw    []byte
	Object types.Object
}

// Load reads path and parses it as a JSON object. A missing or unreadable
// file, malformed JSON, and a top-level value other than an object are
// errors.
func Load(path string) (Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] != '{' && json.Valid(trimmed) {
		return Input{}, fmt.Errorf("parsing %s: document is %w", path, ErrNotObject)
	}

	var obj types.Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Input{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return Input{Raw: raw, Object: obj}, nil
}
