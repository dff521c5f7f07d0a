// Package mongo reads objectives from a MongoDB database.
//
// Documents in the okrs collection use the same field names as the JSON
// export (okr_id, parent_okr, assigned_users_details, ...). The roster is
// read from the users and business_units collections when present.
package mongo

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Collection names.
const (
	CollectionOKRs          = "okrs"
	CollectionUsers         = "users"
	CollectionBusinessUnits = "business_units"
)

// Options configures [Open].
type Options struct {
	URI         string
	Database    string
	Collection  string // defaults to CollectionOKRs
	Query       okr.Query
	ConnTimeout time.Duration
}

// Source reads one database.
type Source struct {
	client *mongo.Client
	db     *mongo.Database
	coll   string
	query  okr.Query
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options) (*Source, error) {
	if opts.Database == "" {
		return nil, errors.New(errors.ErrCodeInvalidSource, "mongo: database is required")
	}
	if opts.Collection == "" {
		opts.Collection = CollectionOKRs
	}
	if opts.ConnTimeout == 0 {
		opts.ConnTimeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnTimeout).
		SetServerSelectionTimeout(opts.ConnTimeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "mongo: connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "mongo: ping")
	}
	return &Source{
		client: client,
		db:     client.Database(opts.Database),
		coll:   opts.Collection,
		query:  opts.Query,
	}, nil
}

// Name identifies the database and collection.
func (s *Source) Name() string {
	return "mongo:" + s.db.Name() + "." + s.coll
}

// Records returns the objectives matching the configured query.
func (s *Source) Records(ctx context.Context) ([]okr.Record, error) {
	return s.Query(ctx, s.query)
}

// Query returns the objectives matching q, ordered by okr_id.
func (s *Source) Query(ctx context.Context, q okr.Query) ([]okr.Record, error) {
	docs, err := s.find(ctx, s.coll, Filter(q))
	if err != nil {
		return nil, err
	}
	records := make([]okr.Record, 0, len(docs))
	for _, d := range docs {
		r, err := DecodeRecord(d)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Users returns the users collection.
func (s *Source) Users(ctx context.Context) ([]okr.User, error) {
	var users []okr.User
	return users, s.findInto(ctx, CollectionUsers, &users)
}

// BusinessUnits returns the business_units collection.
func (s *Source) BusinessUnits(ctx context.Context) ([]okr.Unit, error) {
	var units []okr.Unit
	return units, s.findInto(ctx, CollectionBusinessUnits, &units)
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Source) find(ctx context.Context, coll string, filter bson.D) ([]bson.M, error) {
	cur, err := s.db.Collection(coll).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "okr_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "mongo: find %s", coll)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "mongo: read %s", coll)
	}
	return docs, nil
}

func (s *Source) findInto(ctx context.Context, coll string, v any) error {
	docs, err := s.find(ctx, coll, bson.D{})
	if err != nil {
		return err
	}
	return viaJSON(docs, v)
}

// Filter translates a query into a document filter. Ids may be stored as
// strings or numbers, so numeric ids match either form.
func Filter(q okr.Query) bson.D {
	f := bson.D{}
	if q.TeamID != "" {
		f = append(f, bson.E{Key: "team_id", Value: idMatch(q.TeamID)})
	}
	if q.DepartmentID != "" {
		f = append(f, bson.E{Key: "department_id", Value: idMatch(q.DepartmentID)})
	}
	if q.Status != "" && q.Status != okr.StatusAll {
		f = append(f, bson.E{Key: "status", Value: q.Status})
	}
	return f
}

func idMatch(id okr.ID) any {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return bson.M{"$in": bson.A{string(id), n}}
	}
	return string(id)
}

// DecodeRecord converts a raw document into a record. The _id field is
// dropped; every other unmodelled field lands in Attrs.
func DecodeRecord(doc bson.M) (okr.Record, error) {
	clean := make(bson.M, len(doc))
	for k, v := range doc {
		if k != "_id" {
			clean[k] = v
		}
	}
	var r okr.Record
	if err := viaJSON(clean, &r); err != nil {
		return okr.Record{}, err
	}
	return r, nil
}

func viaJSON(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "mongo: encode document")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "mongo: decode document")
	}
	return nil
}
