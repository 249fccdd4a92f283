// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// parseDateFlag parses a YYYY-MM-DD or RFC 3339 flag value. A bare date
// resolves to the end of that day when endOfDay is set, otherwise to its
// start. An empty value yields the zero time.
func parseDateFlag(name, value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(types.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: use YYYY-MM-DD or RFC 3339", name, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
