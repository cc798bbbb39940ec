package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConnectTimeout bounds establishing the client and the initial ping. It
// does not apply to later operations.
const ConnectTimeout = 10 * time.Second

// Mongo stores each collection as a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to uri and verifies the deployment is reachable.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{coll: m.db.Collection(name)}
}

// Ensure creates the declared indexes. Collections themselves are created
// on first insert.
func (m *Mongo) Ensure(ctx context.Context, specs ...CollectionSpec) error {
	for _, spec := range specs {
		models := IndexModels(spec)
		if len(models) == 0 {
			continue
		}
		if _, err := m.db.Collection(spec.Name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", spec.Name, err)
		}
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Insert(ctx context.Context, doc any) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return c.writeErr("inserting", err)
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, f Filter, out any, opts ...FindOptions) error {
	fo := options.FindOne()
	if len(opts) > 0 {
		if len(opts[0].Sort) > 0 {
			fo.SetSort(BSONSort(opts[0].Sort))
		}
		if len(opts[0].Slice) > 0 {
			fo.SetProjection(BSONProjection(opts[0].Slice))
		}
	}

	err := c.coll.FindOne(ctx, BSONFilter(f), fo).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("finding in %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) Find(ctx context.Context, f Filter, out any, opts FindOptions) error {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(BSONSort(opts.Sort))
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if len(opts.Slice) > 0 {
		fo.SetProjection(BSONProjection(opts.Slice))
	}

	cursor, err := c.coll.Find(ctx, BSONFilter(f), fo)
	if err != nil {
		return fmt.Errorf("finding in %s: %w", c.coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decoding %s documents: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, BSONFilter(f))
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c *mongoCollection) Replace(ctx context.Context, id string, doc any) (bool, error) {
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return false, c.writeErr("replacing", err)
	}
	return res.MatchedCount > 0, nil
}

func (c *mongoCollection) Upsert(ctx context.Context, id string, doc any) error {
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return c.writeErr("upserting", err)
	}
	return nil
}

func (c *mongoCollection) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("deleting from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount > 0, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, BSONFilter(f))
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) writeErr(verb string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", verb, c.coll.Name(), ErrDuplicate)
	}
	return fmt.Errorf("%s %s: %w", verb, c.coll.Name(), err)
}

func bsonField(field string) string {
	if field == IDField {
		return "_id"
	}
	return field
}

// BSONFilter translates f into a MongoDB query document. Range operators on
// the same field are merged into one operator document.
func BSONFilter(f Filter) bson.M {
	m := bson.M{}
	for _, c := range f {
		key := bsonField(c.Field)
		switch c.Op {
		case OpEq, OpHas:
			m[key] = c.Value
		case OpIn:
			mergeOperator(m, key, "$in", c.Value)
		case OpGte:
			mergeOperator(m, key, "$gte", c.Value)
		case OpLte:
			mergeOperator(m, key, "$lte", c.Value)
		case OpContainsFold:
			s, _ := c.Value.(string)
			m[key] = bson.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		case OpPrefix:
			s, _ := c.Value.(string)
			m[key] = bson.Regex{Pattern: "^" + regexp.QuoteMeta(s)}
		}
	}
	return m
}

func mergeOperator(m bson.M, key, op string, v any) {
	if ops, ok := m[key].(bson.M); ok {
		ops[op] = v
		return
	}
	m[key] = bson.M{op: v}
}

// BSONSort translates a sort specification into an ordered sort document.
func BSONSort(sort []SortField) bson.D {
	d := make(bson.D, 0, len(sort))
	for _, s := range sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: bsonField(s.Field), Value: dir})
	}
	return d
}

// BSONProjection returns a projection that slices array fields and keeps
// every other field.
func BSONProjection(slice map[string]int) bson.M {
	p := bson.M{}
	for field, n := range slice {
		p[field] = bson.M{"$slice": n}
	}
	return p
}

// IndexModels returns the index definitions for a collection spec.
func IndexModels(spec CollectionSpec) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(spec.Unique)+len(spec.Indexes))
	for _, f := range spec.Unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: bsonField(f), Value: 1}},
			Options: options.Index().SetUnique(true),
		})
	}
	for _, f := range spec.Indexes {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: bsonField(f), Value: 1}},
		})
	}
	return models
}
