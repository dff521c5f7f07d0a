// Package okr defines the objective records that okrtree lays out.
//
// A [Record] mirrors one row of the OKR tracker's REST payload: an
// identifier, an optional parent, and a payload that okrtree passes through
// untouched. Records arrive as a flat list. The hierarchy is implied by the
// parent references and reconstructed by package forest.
//
// Identifiers are normalised to strings because the backends disagree on
// whether they are numbers or strings:
//
//	{"okr_id": 7, "parent_okr": "3"}  →  Record{ID: "7", Parent: "3"}
//
// A null, empty or zero parent means "no parent", matching how the tracker
// marks top-level objectives.
package okr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies an objective, a user or a business unit.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := scalar(b)
	if err != nil {
		return err
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string { return string(id) }

func scalar(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("okr: id must be a string or number, got %s", b)
	}
	return n.String(), nil
}

// Assignee is a user assigned to an objective.
type Assignee struct {
	UserID        ID     `json:"user_id"`
	Name          string `json:"user_name,omitempty"`
	PrincipalName string `json:"teams_user_principal_name,omitempty"`
}

// BusinessUnit tags an objective with an owning unit. The tracker exposes the
// unit id under either "id" or "business_unit_id" depending on the endpoint.
type BusinessUnit struct {
	ID             ID     `json:"id,omitempty"`
	BusinessUnitID ID     `json:"business_unit_id,omitempty"`
	Name           string `json:"name,omitempty"`
}

// Matches reports whether the unit has the given id under either key.
func (b BusinessUnit) Matches(id ID) bool {
	return id != "" && (b.ID == id || b.BusinessUnitID == id)
}

// Record is one objective.
type Record struct {
	ID            ID             `json:"okr_id"`
	Parent        ID             `json:"parent_okr,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status,omitempty"`
	Assignees     []Assignee     `json:"assigned_users_details,omitempty"`
	BusinessUnits []BusinessUnit `json:"business_units,omitempty"`

	// Attrs holds every field not modelled above so that layout output can
	// hand the complete payload back to the caller.
	Attrs map[string]any `json:"-"`
}

var knownFields = []string{
	"okr_id", "parent_okr", "name", "description", "status",
	"assigned_users_details", "business_units",
}

// IsRoot reports whether the record declares no parent.
func (r Record) IsRoot() bool { return r.Parent == "" }

// AssignedTo reports whether user is among the record's assignees.
func (r Record) AssignedTo(user ID) bool {
	if user == "" {
		return false
	}
	for _, a := range r.Assignees {
		if a.UserID == user {
			return true
		}
	}
	return false
}

// InBusinessUnit reports whether the record is tagged with the unit.
func (r Record) InBusinessUnit(unit ID) bool {
	for _, b := range r.BusinessUnits {
		if b.Matches(unit) {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes the modelled fields and keeps the rest in Attrs.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Attrs = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("okr: field %q: %w", k, err)
			}
			p.Attrs[k] = val
		}
	}
	if p.Parent == "0" {
		p.Parent = ""
	}
	*r = Record(p)
	return nil
}

// MarshalJSON writes Attrs back alongside the modelled fields. Modelled
// fields win on key collisions.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	known, err := json.Marshal(plain(r))
	if err != nil || len(r.Attrs) == 0 {
		return known, err
	}
	merged := make(map[string]json.RawMessage, len(r.Attrs)+len(knownFields))
	for k, v := range r.Attrs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("okr: field %q: %w", k, err)
		}
		merged[k] = b
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}
