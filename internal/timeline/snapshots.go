// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package timeline

import "github.com/pdiddy/auditverse-convert/pkg/types"

// quarters lists the fixed snapshot markers, Q1 2023 through Q4 2024.
var quarters = [...]struct {
	day, label, summary string
}{
	{"2023-01-01", "Q1 2023", "Beginning of fiscal year 2023"},
	{"2023-04-01", "Q2 2023", "Start of Q2 - Initial control implementations"},
	{"2023-07-01", "Q3 2023", "Mid-year review period"},
	{"2023-10-01", "Q4 2023", "End of year assessment"},
	{"2024-01-01", "Q1 2024", "Beginning of fiscal year 2024"},
	{"2024-04-01", "Q2 2024", "Spring audit season"},
	{"2024-07-01", "Q3 2024", "Mid-year checkpoint"},
	{"2024-10-01", "Q4 2024", "Year-end risk assessment"},
}

// Snapshots returns the quarterly snapshot markers. The list does not depend
// on the data being converted.
func Snapshots() []types.Snapshot {
	out := make([]types.Snapshot, len(quarters))
	for i, q := range quarters {
		out[i] = types.Snapshot{
			Date:    q.day + "T00:00:00Z",
			Label:   q.label,
			Summary: q.summary,
		}
	}
	return out
}
