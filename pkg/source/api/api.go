// Package api reads objectives from the tracker's REST API.
//
// Endpoints, relative to the base URL:
//
//	GET /okrs/?team_id=&department_id=&status=
//	GET /users/
//	GET /users/team-members/
//	GET /business-units/
//	GET /departments/
//	GET /weekly-discussions/my-forms/
//
// Responses are cached through an [httputil.Cache]. Every request is made
// once; a failure surfaces as NETWORK_ERROR or NOT_FOUND.
package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/matzehuels/okrtree/pkg/discussion"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/httputil"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Source is a client for one tracker deployment.
type Source struct {
	client  *httputil.Client
	base    *url.URL
	query   okr.Query
	refresh bool
}

// Option configures a [Source].
type Option func(*Source)

// WithQuery scopes Records to a team, department or status.
func WithQuery(q okr.Query) Option { return func(s *Source) { s.query = q } }

// WithRefresh bypasses cached responses.
func WithRefresh() Option { return func(s *Source) { s.refresh = true } }

// New creates a source for the API at baseURL. token, if set, is sent as a
// bearer token. Extra headers apply to every request.
func New(baseURL, token string, cache *httputil.Cache, headers map[string]string, opts ...Option) (*Source, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse %s", baseURL)
	}

	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}
	if cache == nil {
		cache = httputil.NewCache(nil, nil, 0)
	}

	s := &Source{
		client: httputil.NewClient(cache.Namespace(base.Host), h),
		base:   base,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name identifies the deployment and query.
func (s *Source) Name() string {
	name := "api:" + s.base.String()
	if q := s.query.Values().Encode(); q != "" {
		name += "?" + q
	}
	return name
}

// Records returns the objectives matching the source's query.
func (s *Source) Records(ctx context.Context) ([]okr.Record, error) {
	return s.Query(ctx, s.query)
}

// Query returns the objectives matching q. Filtering happens server-side.
func (s *Source) Query(ctx context.Context, q okr.Query) ([]okr.Record, error) {
	var records []okr.Record
	err := s.get(ctx, "okrs/", q.Values(), &records)
	return records, err
}

// Users returns the organisation roster.
func (s *Source) Users(ctx context.Context) ([]okr.User, error) {
	var users []okr.User
	err := s.get(ctx, "users/", nil, &users)
	return users, err
}

// TeamMembers returns the teams of the authenticated user.
func (s *Source) TeamMembers(ctx context.Context) ([]okr.User, error) {
	var resp struct {
		Teams []okr.User `json:"teams"`
	}
	err := s.get(ctx, "users/team-members/", nil, &resp)
	return resp.Teams, err
}

// BusinessUnits lists the business units.
func (s *Source) BusinessUnits(ctx context.Context) ([]okr.Unit, error) {
	var units []okr.Unit
	err := s.get(ctx, "business-units/", nil, &units)
	return units, err
}

// Departments lists the departments.
func (s *Source) Departments(ctx context.Context) ([]okr.Department, error) {
	var deps []okr.Department
	err := s.get(ctx, "departments/", nil, &deps)
	return deps, err
}

// Forms lists the authenticated user's weekly discussion forms.
func (s *Source) Forms(ctx context.Context) ([]discussion.Form, error) {
	var forms []discussion.Form
	err := s.get(ctx, "weekly-discussions/my-forms/", nil, &forms)
	return forms, err
}

func (s *Source) get(ctx context.Context, path string, params url.Values, v any) error {
	u := s.base.ResolveReference(&url.URL{Path: path, RawQuery: params.Encode()})
	key := u.RequestURI()
	return s.client.Cached(ctx, key, s.refresh, v, func() error {
		return s.client.Get(ctx, u.String(), v)
	})
}
