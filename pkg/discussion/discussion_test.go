package discussion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Wednesday of ISO week 11, 2026.
var now = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func sampleForms() []Form {
	return []Form{
		{ID: "1", Week: "W08", EntryDate: day(2026, 2, 16), Status: Submitted, CanEdit: false},
		{ID: "2", Week: "W09", EntryDate: day(2026, 2, 23), Status: Submitted, CanEdit: true},
		{ID: "3", Week: "W10", EntryDate: day(2026, 3, 2), Status: InProgress},
		{ID: "4", Week: "W11", EntryDate: day(2026, 3, 9), Status: NotStarted},
		{ID: "5", Week: "W12", EntryDate: day(2026, 3, 16), IsFuture: true},
		{ID: "6", Week: "W13", EntryDate: day(2026, 3, 23), IsFuture: true},
		{ID: "7", Week: "W14", EntryDate: day(2026, 3, 30), IsFuture: true},
		{ID: "8", Week: "W15", EntryDate: day(2026, 4, 6), IsFuture: true},
	}
}

func formIDs(forms []Form) []okr.ID {
	out := make([]okr.ID, len(forms))
	for i, f := range forms {
		out[i] = f.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		filter Filter
		want   []okr.ID
	}{
		{All, []okr.ID{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{Pending, []okr.ID{"3", "4"}},
		{YetToStart, []okr.ID{"5", "6", "7"}},
		{Completed, []okr.ID{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.want, formIDs(Apply(sampleForms(), tt.filter)))
		})
	}
}

func TestApplyPendingExcludesFutureDrafts(t *testing.T) {
	forms := []Form{{ID: "x", Status: InProgress, IsFuture: true}}
	assert.Empty(t, Apply(forms, Pending))
	assert.Empty(t, Apply(nil, All))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, map[Filter]int{All: 8, Pending: 2, YetToStart: 3, Completed: 2}, Counts(sampleForms()))
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"", All},
		{"all", All},
		{"Pending", Pending},
		{"yet-to-start", YetToStart},
		{"YET_TO_START", YetToStart},
		{" completed ", Completed},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFilter("later")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFilter))
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		ref := monday.AddDate(0, 0, d).Add(13 * time.Hour)
		assert.Equal(t, monday, WeekStart(ref), ref.Weekday().String())
	}
}

func TestWeekPredicates(t *testing.T) {
	tests := []struct {
		name          string
		date          time.Time
		current, past bool
	}{
		{"monday", day(2026, 3, 9).Time, true, false},
		{"sunday", day(2026, 3, 15).Time, true, false},
		{"previous sunday", day(2026, 3, 8).Time, false, true},
		{"next monday", day(2026, 3, 16).Time, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.current, IsCurrentWeek(tt.date, now))
			assert.Equal(t, tt.past, IsPastWeek(tt.date, now))
		})
	}
}

func TestActionFor(t *testing.T) {
	forms := sampleForms()
	tests := []struct {
		form    Form
		label   string
		enabled bool
	}{
		{forms[0], "View Submission", true},
		{forms[1], "View/Edit Submission", true},
		{forms[2], "Complete Form", true},
		{forms[3], "Start Form", true},
		{forms[4], "Week Not Started Yet", false},
	}
	for _, tt := range tests {
		got := ActionFor(tt.form, now)
		assert.Equal(t, tt.label, got.Label, "form %s", tt.form.ID)
		assert.Equal(t, tt.enabled, got.Enabled, "form %s", tt.form.ID)
	}
}

func TestView(t *testing.T) {
	rows := View(sampleForms(), Pending, now)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].CurrentWeek)
	assert.True(t, rows[1].CurrentWeek)
	assert.Equal(t, "Start Form", rows[1].Action.Label)
}

func TestFormJSON(t *testing.T) {
	const payload = `{"form_id": 31, "week": "Mar 9 - Mar 15", "entry_date": "2026-03-09",
		"status": 1, "status_display": "In Progress", "is_future": false, "can_edit": true}`

	var f Form
	require.NoError(t, json.Unmarshal([]byte(payload), &f))
	assert.Equal(t, okr.ID("31"), f.ID)
	assert.Equal(t, InProgress, f.Status)
	assert.Equal(t, day(2026, 3, 9), f.EntryDate)
	assert.Equal(t, "In Progress", f.Label())

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"entry_date":"2026-03-09"`)

	require.NoError(t, json.Unmarshal([]byte(`{"entry_date": "2026-03-09T08:00:00Z"}`), &f))
	assert.Equal(t, 8, f.EntryDate.Hour())
	assert.Error(t, json.Unmarshal([]byte(`{"entry_date": "yesterday"}`), &f))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Submitted", Submitted.String())
	assert.Equal(t, "Status(9)", Status(9).String())
	assert.Equal(t, "Not Started", Form{}.Label())
}
