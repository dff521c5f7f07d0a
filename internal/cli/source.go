package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/httputil"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source"
	"github.com/matzehuels/okrtree/pkg/source/api"
	"github.com/matzehuels/okrtree/pkg/source/file"
	"github.com/matzehuels/okrtree/pkg/source/mongo"
	"github.com/matzehuels/okrtree/pkg/source/postgres"
	"github.com/matzehuels/okrtree/pkg/source/sqlite"
)

// tokenEnv names the environment variable holding the API bearer token.
const tokenEnv = "OKRTREE_API_TOKEN"

// sourceFlags are the source selection flags shared by commands that read
// records.
type sourceFlags struct {
	kind    string
	query   okr.Query
	refresh bool
	noCache bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "source", "", "record source: file (default), api, mongo, sqlite, postgres")
	cmd.Flags().StringVar((*string)(&f.query.TeamID), "query-team", "", "only objectives of this team")
	cmd.Flags().StringVar((*string)(&f.query.DepartmentID), "query-department", "", "only objectives of this department")
	cmd.Flags().StringVar(&f.query.Status, "query-status", "", "only objectives with this status (All disables the filter)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached records")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// mergeQuery lays the flag query over the configured one.
func (f *sourceFlags) mergeQuery(base okr.Query) okr.Query {
	q := base
	if f.query.TeamID != "" {
		q.TeamID = f.query.TeamID
	}
	if f.query.DepartmentID != "" {
		q.DepartmentID = f.query.DepartmentID
	}
	if f.query.Status != "" {
		q.Status = f.query.Status
	}
	return q
}

// openSource picks the source for a command. A positional file argument
// always wins over the configured kind. The returned close function is
// never nil.
func (c *CLI) openSource(ctx context.Context, f *sourceFlags, args []string) (source.Source, func(), error) {
	noop := func() {}
	sc := c.cfg.Source
	q := f.mergeQuery(sc.Query)

	kind := sc.Kind
	if f.kind != "" {
		kind = f.kind
	}
	if len(args) > 0 {
		kind, sc.Path = sourceFile, args[0]
	}

	switch kind {
	case "", sourceFile:
		if sc.Path == "" {
			return nil, noop, errors.New(errors.ErrCodeInvalidSource, "no input file: pass one as an argument or set [source] path")
		}
		src, err := file.New(sc.Path)
		return src, noop, err

	case sourceAPI:
		backend, err := c.newCache(ctx, f.noCache)
		if err != nil {
			return nil, noop, err
		}
		token := sc.APIToken
		if env := os.Getenv(tokenEnv); env != "" {
			token = env
		}
		opts := []api.Option{api.WithQuery(q)}
		if f.refresh {
			opts = append(opts, api.WithRefresh())
		}
		src, err := api.New(sc.APIURL, token, httputil.NewCache(backend, cacheKeyer(), 0), sc.Headers, opts...)
		if err != nil {
			_ = backend.Close()
			return nil, noop, err
		}
		return src, func() { _ = backend.Close() }, nil

	case sourceMongo:
		src, err := mongo.Open(ctx, mongo.Options{
			URI:        sc.MongoURI,
			Database:   sc.MongoDatabase,
			Collection: sc.MongoCollection,
			Query:      q,
		})
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close(context.Background()) }, nil

	case sourceSQLite:
		path := sc.SQLitePath
		if path == "" {
			path = sc.Path
		}
		src, err := sqlite.Open(path, q)
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close() }, nil

	case sourcePostgres:
		src, err := postgres.Open(ctx, sc.PostgresDSN, q)
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close() }, nil
	}
	return nil, noop, errors.New(errors.ErrCodeInvalidSource, "unknown source kind %q", kind)
}
