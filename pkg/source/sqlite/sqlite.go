// Package sqlite reads objectives from a SQLite database file.
//
// The expected tables are okrs, okr_assignees and okr_business_units, plus
// users and business_units for the roster. [Migrate] creates them.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source/internal/relational"
)

// Source reads one database.
type Source struct {
	db    *sql.DB
	path  string
	query okr.Query
}

// Open opens path read-write. Use ":memory:" for a private in-memory
// database.
func Open(path string, q okr.Query) (*Source, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "sqlite: open %s", path)
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)
	return &Source{db: db, path: path, query: q}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Source) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, relational.Schema); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "sqlite: migrate")
	}
	return nil
}

// DB exposes the handle for seeding and tests.
func (s *Source) DB() *sql.DB { return s.db }

// Name identifies the database file.
func (s *Source) Name() string { return "sqlite:" + s.path }

// Records returns the objectives matching the configured query.
func (s *Source) Records(ctx context.Context) ([]okr.Record, error) {
	return s.Query(ctx, s.query)
}

// Query returns the objectives matching q.
func (s *Source) Query(ctx context.Context, q okr.Query) ([]okr.Record, error) {
	return relational.LoadRecords(ctx, s.run, relational.Question, q)
}

// Users reads the users table.
func (s *Source) Users(ctx context.Context) ([]okr.User, error) {
	return relational.LoadUsers(ctx, s.run)
}

// BusinessUnits reads the business_units table.
func (s *Source) BusinessUnits(ctx context.Context) ([]okr.Unit, error) {
	return relational.LoadUnits(ctx, s.run)
}

// Close closes the database.
func (s *Source) Close() error { return s.db.Close() }

func (s *Source) run(ctx context.Context, query string, args ...any) (relational.Rows, func(), error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { _ = rows.Close() }, nil
}
