// Package source defines where objective records come from.
//
// A [Source] yields the flat record list the layout engine consumes.
// Backends live in subpackages:
//
//   - source/file: a JSON export on disk
//   - source/api: the tracker's REST API
//   - source/mongo: a MongoDB collection
//   - source/sqlite, source/postgres: the relational schema
//
// Optional interfaces extend a source with the roster ([Roster]), weekly
// discussion forms ([FormSource]) and backend-side filtering ([Queryer]).
// Use the package-level helpers ([Fetch], [Users], [Forms]) rather than
// type-asserting directly; they fall back sensibly when a backend lacks a
// capability.
package source

import (
	"context"

	"github.com/matzehuels/okrtree/pkg/discussion"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Source yields objective records.
type Source interface {
	// Name identifies the source in logs and cache keys. Two sources with
	// the same name must return the same records.
	Name() string
	Records(ctx context.Context) ([]okr.Record, error)
}

// Queryer is implemented by sources that filter on the backend.
type Queryer interface {
	Query(ctx context.Context, q okr.Query) ([]okr.Record, error)
}

// Roster is implemented by sources that also know the organisation.
type Roster interface {
	Users(ctx context.Context) ([]okr.User, error)
	BusinessUnits(ctx context.Context) ([]okr.Unit, error)
}

// FormSource is implemented by sources that carry weekly discussion forms.
type FormSource interface {
	Forms(ctx context.Context) ([]discussion.Form, error)
}

// Fetch returns the records of src matching q. Sources that cannot filter
// themselves only get the status part of q applied.
func Fetch(ctx context.Context, src Source, q okr.Query) ([]okr.Record, error) {
	if q == (okr.Query{}) {
		return src.Records(ctx)
	}
	if qs, ok := src.(Queryer); ok {
		return qs.Query(ctx, q)
	}
	records, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := records[:0:0]
	for _, r := range records {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Users returns the roster of src, or nil if it has none.
func Users(ctx context.Context, src Source) ([]okr.User, error) {
	if r, ok := src.(Roster); ok {
		return r.Users(ctx)
	}
	return nil, nil
}

// Forms returns the discussion forms of src, or nil if it has none.
func Forms(ctx context.Context, src Source) ([]discussion.Form, error) {
	if f, ok := src.(FormSource); ok {
		return f.Forms(ctx)
	}
	return nil, nil
}

// Static is an in-memory source, used for request bodies and tests.
type Static struct {
	Label       string            `json:"-"`
	OKRs        []okr.Record      `json:"okrs"`
	People      []okr.User        `json:"users,omitempty"`
	Units       []okr.Unit        `json:"business_units,omitempty"`
	Discussions []discussion.Form `json:"forms,omitempty"`
}

// NewStatic wraps records as a source.
func NewStatic(label string, records []okr.Record) *Static {
	return &Static{Label: label, OKRs: records}
}

func (s *Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *Static) Records(context.Context) ([]okr.Record, error) { return s.OKRs, nil }

func (s *Static) Users(context.Context) ([]okr.User, error) { return s.People, nil }

func (s *Static) BusinessUnits(context.Context) ([]okr.Unit, error) { return s.Units, nil }

func (s *Static) Forms(context.Context) ([]discussion.Form, error) { return s.Discussions, nil }
