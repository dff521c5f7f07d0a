package okr

import "net/url"

// User is a member of the organisation roster. TeamsID is the identifier
// assignees reference through Assignee.UserID.
type User struct {
	TeamsID       ID     `json:"teams_id"`
	Name          string `json:"user_name"`
	PrincipalName string `json:"teams_user_principal_name,omitempty"`
	DepartmentID  ID     `json:"department_id,omitempty"`
}

// Department groups users and teams.
type Department struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Unit is a business unit as listed by the roster endpoint.
type Unit struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// StatusAll disables status filtering in a [Query].
const StatusAll = "All"

// Query narrows the set of objectives a source returns.
type Query struct {
	TeamID       ID     `json:"team_id,omitempty" toml:"team_id"`
	DepartmentID ID     `json:"department_id,omitempty" toml:"department_id"`
	Status       string `json:"status,omitempty" toml:"status"`
}

// Values encodes q as URL query parameters. Empty fields and the "All"
// status are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.TeamID != "" {
		v.Set("team_id", string(q.TeamID))
	}
	if q.DepartmentID != "" {
		v.Set("department_id", string(q.DepartmentID))
	}
	if q.Status != "" && q.Status != StatusAll {
		v.Set("status", q.Status)
	}
	return v
}

// Match reports whether r passes the status part of the query. Team and
// department scoping needs data records do not carry, so backends apply it.
func (q Query) Match(r Record) bool {
	return q.Status == "" || q.Status == StatusAll || q.Status == r.Status
}
