package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/okrtree/pkg/okr"
)

func TestRecordsQuery(t *testing.T) {
	tests := []struct {
		name      string
		q         okr.Query
		wantWhere string
		wantArgs  []any
	}{
		{"no filter", okr.Query{}, "", nil},
		{"all status is ignored", okr.Query{Status: okr.StatusAll}, "", nil},
		{"team", okr.Query{TeamID: "t1"}, " WHERE team_id = ?", []any{"t1"}},
		{"everything", okr.Query{TeamID: "t1", DepartmentID: "d", Status: "Done"},
			" WHERE team_id = ? AND department_id = ? AND status = ?", []any{"t1", "d", "Done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := RecordsQuery(tt.q, Question)
			assert.Equal(t,
				"SELECT okr_id, COALESCE(parent_okr, ''), name, COALESCE(description, ''), COALESCE(status, '') FROM okrs"+
					tt.wantWhere+" ORDER BY position, okr_id", q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestDollar(t *testing.T) {
	assert.Equal(t, "$3", Dollar(3))
	assert.Equal(t, "?", Question(3))
}
