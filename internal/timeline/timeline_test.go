// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package timeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/auditverse-convert/pkg/types"
)

// --- test helpers ---

func parseDoc(t *testing.T, src string) types.Object {
	t.Helper()
	var doc types.Object
	require.NoError(t, json.Unmarshal([]byte(src), &doc))
	return doc
}

func changes(t *testing.T, e types.Event) map[string]any {
	t.Helper()
	data, err := json.Marshal(e.Changes)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func ofType(events []types.Event, typ types.EventType) []types.Event {
	var out []types.Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

const riskR1 = `{"id":"R1","inherent_rating":8,"inherent_likelihood":9,
	"residual_rating":4,"residual_likelihood":3,"residual_severity":"Medium",
	"created_date":"2023-01-01","last_reviewed":"2024-01-01"}`

// --- hash ---

func TestStableHash(t *testing.T) {
	// FNV-1a 32-bit reference vectors.
	assert.Equal(t, uint32(0x811c9dc5), StableHash(""))
	assert.Equal(t, uint32(0xe40c292c), StableHash("a"))
	assert.Equal(t, uint32(0xbf9cf968), StableHash("foobar"))
	assert.Equal(t, StableHash("CTRL-001"), StableHash("CTRL-001"))
}

func TestOffsetDaysWithinWindow(t *testing.T) {
	for _, id := range []types.EntityID{"", "C1", "CTRL-001", "ISS-42", "INC-7", "ünïcode"} {
		for _, window := range []int{90, 180, 450, 700} {
			off := offsetDays(id, window)
			assert.GreaterOrEqual(t, off, 0)
			assert.Less(t, off, window)
		}
	}
}

// --- risks ---

func TestRiskEvents_ThreeStageHistory(t *testing.T) {
	doc := parseDoc(t, `{"risks":[`+riskR1+`]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, types.EventRiskRatingChange, e.Type)
		assert.Equal(t, types.EntityRisk, e.EntityType)
		assert.Equal(t, types.EntityID("R1"), e.ID)
		assert.Nil(t, e.Data)
	}

	assert.Equal(t, "2023-04-01T00:00:00Z", events[0].Date)
	assert.Equal(t, map[string]any{"residual_rating": 7.2, "residual_likelihood": 9.0}, changes(t, events[0]))

	assert.Equal(t, "2023-09-28T00:00:00Z", events[1].Date)
	assert.Equal(t, map[string]any{"residual_rating": 6.0, "residual_likelihood": 6.0}, changes(t, events[1]))

	assert.Equal(t, "2024-01-01T00:00:00Z", events[2].Date)
	assert.Equal(t, map[string]any{
		"residual_rating": 4.0, "residual_likelihood": 3.0, "residual_severity": "Medium",
	}, changes(t, events[2]))
}

func TestRiskEvents_LiteralFormatting(t *testing.T) {
	doc := parseDoc(t, `{"risks":[`+riskR1+`]}`)
	events := NewSynthesizer(nil).Synthesize(doc)
	require.Len(t, events, 3)

	first, err := json.Marshal(events[0].Changes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"residual_rating":7.2,"residual_likelihood":9}`, string(first))
	assert.Equal(t, `{"residual_rating":7.2,"residual_likelihood":9}`, string(first))

	mid, err := json.Marshal(events[1].Changes)
	require.NoError(t, err)
	assert.Equal(t, `{"residual_rating":6.0,"residual_likelihood":6}`, string(mid))
}

func TestRiskEvents_LikelihoodCappedAtTen(t *testing.T) {
	doc := parseDoc(t, `{"risks":[{"id":"R2","inherent_rating":10,"inherent_likelihood":12,
		"residual_rating":5,"residual_likelihood":4,"residual_severity":"High",
		"created_date":"2023-02-01","last_reviewed":"2024-06-01"}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.NotEmpty(t, events)
	assert.Equal(t, map[string]any{"residual_rating": 9.0, "residual_likelihood": 10.0}, changes(t, events[0]))
}

func TestRiskEvents_MidpointOnlyBeforeReview(t *testing.T) {
	tests := []struct {
		name     string
		reviewed string
		want     int
	}{
		{"review well after midpoint", "2024-01-01", 3},
		{"review on midpoint day", "2023-09-28", 2},
		{"review before midpoint", "2023-07-01", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `{"risks":[{"id":"R1","inherent_rating":8,"inherent_likelihood":9,
				"residual_rating":4,"residual_likelihood":3,"residual_severity":"Medium",
				"created_date":"2023-01-01","last_reviewed":"`+tt.reviewed+`"}]}`)
			events := NewSynthesizer(nil).Synthesize(doc)
			assert.Len(t, events, tt.want)
			assert.Equal(t, tt.reviewed+"T00:00:00Z", events[len(events)-1].Date)
		})
	}
}

func TestRiskEvents_WithinReviewWindow(t *testing.T) {
	doc := parseDoc(t, `{"risks":[
		{"id":"A","inherent_rating":6,"inherent_likelihood":5,"residual_rating":3,"residual_likelihood":2,
		 "residual_severity":"Low","created_date":"2023-03-15","last_reviewed":"2024-11-30"},
		{"id":"B","inherent_rating":9,"inherent_likelihood":8,"residual_rating":7,"residual_likelihood":6,
		 "residual_severity":"High","created_date":"2022-12-31","last_reviewed":"2023-12-31"}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	bounds := map[types.EntityID][2]string{
		"A": {"2023-03-15", "2024-11-30"},
		"B": {"2022-12-31", "2023-12-31"},
	}
	perRisk := map[types.EntityID]int{}
	for _, e := range events {
		perRisk[e.ID]++
		b := bounds[e.ID]
		at, err := time.Parse(types.TimestampLayout, e.Date)
		require.NoError(t, err)
		assert.True(t, at.After(day(b[0])), "%s at %s not after creation", e.ID, e.Date)
		assert.False(t, at.After(day(b[1])), "%s at %s after review", e.ID, e.Date)
	}
	for id, n := range perRisk {
		assert.GreaterOrEqual(t, n, 2, id)
		assert.LessOrEqual(t, n, 3, id)
	}
}

func TestRiskEvents_DefaultsForAbsentDates(t *testing.T) {
	doc := parseDoc(t, `{"risks":[{"id":"R9","inherent_rating":5,"inherent_likelihood":5,
		"residual_rating":2,"residual_likelihood":2,"residual_severity":"Low"}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.Len(t, events, 3)
	assert.Equal(t, "2023-04-01T00:00:00Z", events[0].Date)
	assert.Equal(t, "2024-12-01T00:00:00Z", events[2].Date)
}

func TestRiskEvents_SkipsUnparseableDates(t *testing.T) {
	tests := []struct {
		name   string
		fields string
	}{
		{"malformed created", `"created_date":"01/02/2023","last_reviewed":"2024-01-01"`},
		{"malformed review", `"created_date":"2023-01-01","last_reviewed":"soon"`},
		{"null created", `"created_date":null,"last_reviewed":"2024-01-01"`},
		{"numeric review", `"created_date":"2023-01-01","last_reviewed":20240101`},
		{"impossible day", `"created_date":"2023-02-30","last_reviewed":"2024-01-01"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `{"risks":[
				{"id":"BAD","inherent_rating":8,"inherent_likelihood":9,"residual_rating":4,
				 "residual_likelihood":3,"residual_severity":"Medium",`+tt.fields+`},
				`+riskR1+`]}`)
			events := NewSynthesizer(nil).Synthesize(doc)

			require.Len(t, events, 3)
			for _, e := range events {
				assert.Equal(t, types.EntityID("R1"), e.ID)
			}
		})
	}
}

func TestRiskEvents_SkipsMissingRatingsWithWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc := parseDoc(t, `{"risks":[{"id":"R5","inherent_likelihood":9,"residual_rating":4,
		"residual_likelihood":3,"residual_severity":"Medium","created_date":"2023-01-01",
		"last_reviewed":"2024-01-01"}]}`)

	events := NewSynthesizer(zap.New(core)).Synthesize(doc)

	assert.Empty(t, events)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "rating fields")
}

// --- controls, audits, issues, incidents ---

func TestControlEvents(t *testing.T) {
	doc := parseDoc(t, `{"controls":[{"id":"CTRL-001","name":"Access review","effectiveness":0.8}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.Len(t, events, 1)
	e := events[0]
	want := ControlEpoch.AddDate(0, 0, int(StableHash("CTRL-001")%180))
	assert.Equal(t, types.Timestamp(want), e.Date)
	assert.Equal(t, types.EventControlAdded, e.Type)
	assert.Equal(t, types.EntityControl, e.EntityType)
	assert.JSONEq(t, `{"id":"CTRL-001","name":"Access review","effectiveness":0.8}`, string(e.Data))
	assert.Empty(t, e.Changes)
}

func TestAuditEvents(t *testing.T) {
	tests := []struct {
		name       string
		audit      string
		wantEvent  bool
		wantDate   string
		wantStatus any
	}{
		{"no date_performed", `{"id":"A1","status":"planned"}`, false, "", nil},
		{"empty date_performed", `{"id":"A1","date_performed":""}`, false, "", nil},
		{"unparseable date", `{"id":"A1","date_performed":"May 5th"}`, false, "", nil},
		{"default status", `{"id":"A1","date_performed":"2023-05-05"}`, true, "2023-05-05T00:00:00Z", "completed"},
		{"null status", `{"id":"A1","date_performed":"2023-05-05","status":null}`, true, "2023-05-05T00:00:00Z", "completed"},
		{"explicit status", `{"id":"A1","date_performed":"2024-02-10","status":"in_progress"}`, true, "2024-02-10T00:00:00Z", "in_progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `{"audits":[`+tt.audit+`]}`)
			events := NewSynthesizer(nil).Synthesize(doc)

			if !tt.wantEvent {
				assert.Empty(t, events)
				return
			}
			require.Len(t, events, 1)
			assert.Equal(t, tt.wantDate, events[0].Date)
			assert.Equal(t, types.EventAuditStatusChange, events[0].Type)
			assert.Equal(t, map[string]any{"status": tt.wantStatus}, changes(t, events[0]))
		})
	}
}

func TestIssueEvents(t *testing.T) {
	doc := parseDoc(t, `{"issues":[
		{"id":"ISS-1","title":"Stale access","status":"Open"},
		{"id":"ISS-2","title":"Missing evidence","status":"Closed"}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	added := ofType(events, types.EventIssueAdded)
	closed := ofType(events, types.EventIssueStatusChange)
	require.Len(t, added, 2)
	require.Len(t, closed, 1)

	discovered := IssueEpoch.AddDate(0, 0, int(StableHash("ISS-2")%450))
	resolved := discovered.AddDate(0, 0, 30+int(StableHash("ISS-2")%90))
	assert.Equal(t, types.EntityID("ISS-2"), closed[0].ID)
	assert.Equal(t, types.Timestamp(resolved), closed[0].Date)
	assert.Equal(t, map[string]any{"status": "Closed"}, changes(t, closed[0]))

	for _, e := range added {
		want := IssueEpoch.AddDate(0, 0, int(StableHash(string(e.ID))%450))
		assert.Equal(t, types.Timestamp(want), e.Date)
		assert.NotEmpty(t, e.Data)
	}
}

func TestIncidentEvents(t *testing.T) {
	doc := parseDoc(t, `{"incidents":[{"id":"INC-7","impact":"minor"}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.Len(t, events, 1)
	want := IncidentEpoch.AddDate(0, 0, int(StableHash("INC-7")%700))
	assert.Equal(t, types.Timestamp(want), events[0].Date)
	assert.Equal(t, types.EventIncidentAdded, events[0].Type)
	assert.Equal(t, types.EntityIncident, events[0].EntityType)
	assert.JSONEq(t, `{"id":"INC-7","impact":"minor"}`, string(events[0].Data))
}

func TestNumericIDsAreHashedByLiteral(t *testing.T) {
	doc := parseDoc(t, `{"controls":[{"id":17}]}`)
	events := NewSynthesizer(nil).Synthesize(doc)

	require.Len(t, events, 1)
	assert.Equal(t, types.EntityID("17"), events[0].ID)
	want := ControlEpoch.AddDate(0, 0, int(StableHash("17")%180))
	assert.Equal(t, types.Timestamp(want), events[0].Date)
}

func TestRecordsWithoutIDAreSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc := parseDoc(t, `{"controls":[{"name":"orphan"}],"incidents":["not-an-object"]}`)

	events := NewSynthesizer(zap.New(core)).Synthesize(doc)

	assert.Empty(t, events)
	assert.Equal(t, 2, logs.Len())
}

// --- whole document ---

func TestSynthesize_SortedAndDeterministic(t *testing.T) {
	src := `{"risks":[` + riskR1 + `],
		"controls":[{"id":"C1"},{"id":"C2"},{"id":"C3"}],
		"audits":[{"id":"A1","date_performed":"2023-05-05"}],
		"issues":[{"id":"I1","status":"Closed"},{"id":"I2"}],
		"incidents":[{"id":"X1"},{"id":"X2"}]}`

	first := NewSynthesizer(nil).Synthesize(parseDoc(t, src))
	second := NewSynthesizer(nil).Synthesize(parseDoc(t, src))

	assert.Len(t, first, 3+3+1+3+2)
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Date, first[i].Date, "events out of order at %d", i)
	}

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSynthesize_EmptyAndMissingCollections(t *testing.T) {
	for _, src := range []string{`{}`, `{"risks":null,"controls":[]}`, `{"risks":{"not":"a list"}}`} {
		events := NewSynthesizer(nil).Synthesize(parseDoc(t, src))
		assert.NotNil(t, events, src)
		assert.Empty(t, events, src)
	}
}

// --- snapshots ---

func TestSnapshots(t *testing.T) {
	snaps := Snapshots()

	require.Len(t, snaps, 8)
	assert.Equal(t, "2023-01-01T00:00:00Z", snaps[0].Date)
	assert.Equal(t, "Q1 2023", snaps[0].Label)
	assert.Equal(t, "2024-10-01T00:00:00Z", snaps[7].Date)
	assert.Equal(t, "Year-end risk assessment", snaps[7].Summary)
	for i := 1; i < len(snaps); i++ {
		assert.Less(t, snaps[i-1].Date, snaps[i].Date)
	}

	snaps[0].Label = "mutated"
	assert.Equal(t, "Q1 2023", Snapshots()[0].Label)
}
