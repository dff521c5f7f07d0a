// Package postgres reads objectives from PostgreSQL through the pgx driver.
//
// The table layout matches package sqlite; [Migrate] creates it.
package postgres

import (
	"context"
	"database/sql"
	"net/url"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source/internal/relational"
)

const driver = "pgx"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Source reads one database.
type Source struct {
	db    *sql.DB
	name  string
	query okr.Query
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string, q okr.Query) (*Source, error) {
	if dsn == "" {
		return nil, errors.New(errors.ErrCodeInvalidSource, "postgres: dsn is required")
	}
	openMu.Lock()
	db, err := sqlOpen(driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "postgres: open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "postgres: ping")
	}
	return &Source{db: db, name: redact(dsn), query: q}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Source) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, relational.Schema); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "postgres: migrate")
	}
	return nil
}

// Name identifies the server and database without credentials.
func (s *Source) Name() string { return "postgres:" + s.name }

// Records returns the objectives matching the configured query.
func (s *Source) Records(ctx context.Context) ([]okr.Record, error) {
	return s.Query(ctx, s.query)
}

// Query returns the objectives matching q.
func (s *Source) Query(ctx context.Context, q okr.Query) ([]okr.Record, error) {
	return relational.LoadRecords(ctx, s.run, relational.Dollar, q)
}

// Users reads the users table.
func (s *Source) Users(ctx context.Context) ([]okr.User, error) {
	return relational.LoadUsers(ctx, s.run)
}

// BusinessUnits reads the business_units table.
func (s *Source) BusinessUnits(ctx context.Context) ([]okr.Unit, error) {
	return relational.LoadUnits(ctx, s.run)
}

// Close closes the connection pool.
func (s *Source) Close() error { return s.db.Close() }

func (s *Source) run(ctx context.Context, query string, args ...any) (relational.Rows, func(), error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { _ = rows.Close() }, nil
}

// redact strips the password from URL-style DSNs. Key/value DSNs are
// reduced to a fixed label.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "dsn"
	}
	return u.Host + u.Path
}
