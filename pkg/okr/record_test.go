package okr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUnmarshal(t *testing.T) {
	const payload = `{
		"okr_id": 12,
		"parent_okr": "3",
		"name": "Grow Revenue",
		"status": "On Track",
		"progress_percent": "42.50",
		"assigned_users_details": [{"user_id": 99, "user_name": "Ada"}],
		"business_units": [{"business_unit_id": 5, "name": "EMEA"}]
	}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, ID("12"), r.ID)
	assert.Equal(t, ID("3"), r.Parent)
	assert.Equal(t, "Grow Revenue", r.Name)
	assert.Equal(t, []Assignee{{UserID: "99", Name: "Ada"}}, r.Assignees)
	assert.True(t, r.InBusinessUnit("5"))
	assert.Equal(t, map[string]any{"progress_percent": "42.50"}, r.Attrs)
}

func TestRecordParentForms(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    ID
	}{
		{"missing", `{"okr_id": 1}`, ""},
		{"null", `{"okr_id": 1, "parent_okr": null}`, ""},
		{"empty string", `{"okr_id": 1, "parent_okr": ""}`, ""},
		{"zero", `{"okr_id": 1, "parent_okr": 0}`, ""},
		{"number", `{"okr_id": 1, "parent_okr": 7}`, "7"},
		{"string", `{"okr_id": 1, "parent_okr": "a-7"}`, "a-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &r))
			assert.Equal(t, tt.want, r.Parent)
			assert.Equal(t, tt.want == "", r.IsRoot())
		})
	}
}

func TestRecordRejectsNonScalarID(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"okr_id": true}`), &r)
	assert.Error(t, err)
}

func TestRecordMarshalKeepsAttrs(t *testing.T) {
	r := Record{
		ID:    "1",
		Name:  "Grow Revenue",
		Attrs: map[string]any{"quarter": "Q3", "name": "shadowed"},
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "Q3", out["quarter"])
	assert.Equal(t, "Grow Revenue", out["name"])
	assert.NotContains(t, out, "parent_okr")
}

func TestAssignedTo(t *testing.T) {
	r := Record{Assignees: []Assignee{{UserID: "u1"}, {UserID: "u2"}}}

	assert.True(t, r.AssignedTo("u2"))
	assert.False(t, r.AssignedTo("u3"))
	assert.False(t, r.AssignedTo(""))
}

func TestBusinessUnitMatches(t *testing.T) {
	assert.True(t, BusinessUnit{ID: "5"}.Matches("5"))
	assert.True(t, BusinessUnit{BusinessUnitID: "5"}.Matches("5"))
	assert.False(t, BusinessUnit{}.Matches(""))
	assert.False(t, BusinessUnit{ID: "4"}.Matches("5"))
}

func TestQueryValues(t *testing.T) {
	q := Query{TeamID: "t1", Status: StatusAll}
	assert.Equal(t, "team_id=t1", q.Values().Encode())

	q = Query{DepartmentID: "d2", Status: "Active"}
	assert.Equal(t, "department_id=d2&status=Active", q.Values().Encode())

	assert.True(t, Query{Status: StatusAll}.Match(Record{Status: "Done"}))
	assert.False(t, Query{Status: "Active"}.Match(Record{Status: "Done"}))
}
