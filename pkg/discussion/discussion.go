// Package discussion models the weekly O3 discussion forms that accompany
// the OKR board: which forms a filter tab shows, which action a form offers
// and whether it belongs to the current week.
//
// Weeks run Monday 00:00 through Sunday in the location of the reference
// time passed by the caller. Nothing here reads the wall clock.
package discussion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Status is the submission state of a form.
type Status int

const (
	NotStarted Status = 0
	InProgress Status = 1
	Submitted  Status = 2
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "Not Started"
	case InProgress:
		return "In Progress"
	case Submitted:
		return "Submitted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Date is a calendar date as sent by the forms endpoint ("2006-01-02" or a
// full RFC 3339 timestamp).
type Date struct{ time.Time }

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("discussion: date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("discussion: invalid date %q", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// Form is one weekly discussion form of the signed-in user.
type Form struct {
	ID            okr.ID `json:"form_id"`
	Week          string `json:"week"`
	EntryDate     Date   `json:"entry_date"`
	Status        Status `json:"status"`
	StatusDisplay string `json:"status_display,omitempty"`
	IsFuture      bool   `json:"is_future"`
	CanEdit       bool   `json:"can_edit"`
}

// Label returns StatusDisplay, falling back to the status name.
func (f Form) Label() string {
	if f.StatusDisplay != "" {
		return f.StatusDisplay
	}
	return f.Status.String()
}

// =============================================================================
// Filters
// =============================================================================

// Filter selects a tab of the discussion list.
type Filter string

const (
	All        Filter = "All"
	Pending    Filter = "Pending"
	YetToStart Filter = "Yet to Start"
	Completed  Filter = "Completed"
)

// Filters lists the tabs in display order.
var Filters = []Filter{All, Pending, YetToStart, Completed}

// upcomingLimit caps the "Yet to Start" tab.
const upcomingLimit = 3

// ParseFilter accepts a tab name case-insensitively, with dashes or
// underscores in place of spaces. An empty string selects All.
func ParseFilter(s string) (Filter, error) {
	norm := strings.ToLower(strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s)))
	if norm == "" {
		return All, nil
	}
	for _, f := range Filters {
		if strings.ToLower(string(f)) == norm {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFilter, "unknown discussion filter %q (want one of: all, pending, yet-to-start, completed)", s)
}

// Apply returns the forms shown under filter f, preserving order.
func Apply(forms []Form, f Filter) []Form {
	out := make([]Form, 0, len(forms))
	switch f {
	case Pending:
		for _, form := range forms {
			if (form.Status == NotStarted || form.Status == InProgress) && !form.IsFuture {
				out = append(out, form)
			}
		}
	case YetToStart:
		for _, form := range forms {
			if form.IsFuture {
				out = append(out, form)
				if len(out) == upcomingLimit {
					break
				}
			}
		}
	case Completed:
		for _, form := range forms {
			if form.Status == Submitted {
				out = append(out, form)
			}
		}
	default:
		out = append(out, forms...)
	}
	return out
}

// Counts returns the number of forms under every filter.
func Counts(forms []Form) map[Filter]int {
	counts := make(map[Filter]int, len(Filters))
	for _, f := range Filters {
		counts[f] = len(Apply(forms, f))
	}
	return counts
}

// =============================================================================
// Weeks and actions
// =============================================================================

// WeekStart returns Monday 00:00 of the week containing now.
func WeekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}

// IsCurrentWeek reports whether date falls between this week's Monday and
// Sunday (both at 00:00).
func IsCurrentWeek(date, now time.Time) bool {
	monday := WeekStart(now)
	sunday := monday.AddDate(0, 0, 6)
	return !date.Before(monday) && !date.After(sunday)
}

// IsPastWeek reports whether date lies before this week's Monday.
func IsPastWeek(date, now time.Time) bool {
	return date.Before(WeekStart(now))
}

// Action is what the list offers for a form.
type Action struct {
	Label   string `json:"label"`
	Short   string `json:"short"`
	Enabled bool   `json:"enabled"`
}

// ActionFor picks the action for f given the reference time now.
func ActionFor(f Form, now time.Time) Action {
	switch {
	case f.Status == Submitted && f.CanEdit:
		return Action{Label: "View/Edit Submission", Short: "View/Edit", Enabled: true}
	case f.Status == Submitted:
		return Action{Label: "View Submission", Short: "View", Enabled: true}
	case f.IsFuture:
		return Action{Label: "Week Not Started Yet", Short: "Not Started"}
	case IsPastWeek(f.EntryDate.Time, now):
		return Action{Label: "Complete Form", Short: "Complete", Enabled: true}
	}
	return Action{Label: "Start Form", Short: "Start", Enabled: true}
}

// Row is a form prepared for display.
type Row struct {
	Form        Form   `json:"form"`
	CurrentWeek bool   `json:"current_week"`
	Action      Action `json:"action"`
}

// View filters forms and prepares them for display.
func View(forms []Form, f Filter, now time.Time) []Row {
	shown := Apply(forms, f)
	rows := make([]Row, len(shown))
	for i, form := range shown {
		rows[i] = Row{
			Form:        form,
			CurrentWeek: IsCurrentWeek(form.EntryDate.Time, now),
			Action:      ActionFor(form, now),
		}
	}
	return rows
}
