// Package relational holds the table layout and row mapping shared by the
// SQL record sources.
package relational

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Schema creates the tables the SQL sources read. It is valid for both
// SQLite and PostgreSQL.
const Schema = `
CREATE TABLE IF NOT EXISTS okrs (
	okr_id        TEXT PRIMARY KEY,
	parent_okr    TEXT,
	name          TEXT NOT NULL,
	description   TEXT,
	status        TEXT,
	team_id       TEXT,
	department_id TEXT,
	position      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS okr_assignees (
	okr_id         TEXT NOT NULL,
	user_id        TEXT NOT NULL,
	user_name      TEXT,
	principal_name TEXT
);
CREATE TABLE IF NOT EXISTS okr_business_units (
	okr_id           TEXT NOT NULL,
	business_unit_id TEXT NOT NULL,
	name             TEXT
);
CREATE TABLE IF NOT EXISTS users (
	teams_id       TEXT PRIMARY KEY,
	user_name      TEXT,
	principal_name TEXT,
	department_id  TEXT
);
CREATE TABLE IF NOT EXISTS business_units (
	id   TEXT PRIMARY KEY,
	name TEXT
);
`

// Rows is the cursor subset shared by database/sql and pgx.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// QueryFunc runs a query. The returned func releases the cursor.
type QueryFunc func(ctx context.Context, query string, args ...any) (Rows, func(), error)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders "?" placeholders (SQLite).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// RecordsQuery builds the okrs select for q.
func RecordsQuery(q okr.Query, ph Placeholder) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v string) {
		args = append(args, v)
		where = append(where, col+" = "+ph(len(args)))
	}
	if q.TeamID != "" {
		add("team_id", string(q.TeamID))
	}
	if q.DepartmentID != "" {
		add("department_id", string(q.DepartmentID))
	}
	if q.Status != "" && q.Status != okr.StatusAll {
		add("status", q.Status)
	}

	var b strings.Builder
	b.WriteString("SELECT okr_id, COALESCE(parent_okr, ''), name, COALESCE(description, ''), COALESCE(status, '') FROM okrs")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY position, okr_id")
	return b.String(), args
}

const (
	assigneesQuery = "SELECT okr_id, user_id, COALESCE(user_name, ''), COALESCE(principal_name, '') FROM okr_assignees ORDER BY okr_id, user_id"
	unitsQuery     = "SELECT okr_id, business_unit_id, COALESCE(name, '') FROM okr_business_units ORDER BY okr_id, business_unit_id"
	usersQuery     = "SELECT teams_id, COALESCE(user_name, ''), COALESCE(principal_name, ''), COALESCE(department_id, '') FROM users ORDER BY teams_id"
	rosterQuery    = "SELECT id, COALESCE(name, '') FROM business_units ORDER BY id"
)

// LoadRecords reads the objectives matching q with their assignees and
// business units.
func LoadRecords(ctx context.Context, query QueryFunc, ph Placeholder, q okr.Query) ([]okr.Record, error) {
	sqlText, args := RecordsQuery(q, ph)

	var records []okr.Record
	err := each(ctx, query, sqlText, args, func(rows Rows) error {
		var r okr.Record
		if err := rows.Scan(&r.ID, &r.Parent, &r.Name, &r.Description, &r.Status); err != nil {
			return err
		}
		if r.Parent == "0" {
			r.Parent = ""
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []okr.Record{}, nil
	}

	index := make(map[okr.ID]int, len(records))
	for i, r := range records {
		index[r.ID] = i
	}

	err = each(ctx, query, assigneesQuery, nil, func(rows Rows) error {
		var id okr.ID
		var a okr.Assignee
		if err := rows.Scan(&id, &a.UserID, &a.Name, &a.PrincipalName); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			records[i].Assignees = append(records[i].Assignees, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = each(ctx, query, unitsQuery, nil, func(rows Rows) error {
		var id okr.ID
		var u okr.BusinessUnit
		if err := rows.Scan(&id, &u.ID, &u.Name); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			records[i].BusinessUnits = append(records[i].BusinessUnits, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LoadUsers reads the users table.
func LoadUsers(ctx context.Context, query QueryFunc) ([]okr.User, error) {
	var users []okr.User
	err := each(ctx, query, usersQuery, nil, func(rows Rows) error {
		var u okr.User
		if err := rows.Scan(&u.TeamsID, &u.Name, &u.PrincipalName, &u.DepartmentID); err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	return users, err
}

// LoadUnits reads the business_units table.
func LoadUnits(ctx context.Context, query QueryFunc) ([]okr.Unit, error) {
	var units []okr.Unit
	err := each(ctx, query, rosterQuery, nil, func(rows Rows) error {
		var u okr.Unit
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return err
		}
		units = append(units, u)
		return nil
	})
	return units, err
}

func each(ctx context.Context, query QueryFunc, sqlText string, args []any, fn func(Rows) error) error {
	rows, done, err := query(ctx, sqlText, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "query")
	}
	defer done()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "scan")
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "read rows")
	}
	return nil
}
