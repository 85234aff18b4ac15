package store

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) All(ctx context.Context, collection string) ([]Doc, error) {
	docs, err := s.find(ctx, collection, bson.M{}, options.Find())
	return docs, wrap("all", collection, err)
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	var raw bson.M
	if err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Doc{}, wrap("get", collection, ErrNotFound)
		}
		return Doc{}, wrap("get", collection, err)
	}
	return toDoc(raw), nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	docs, err := s.find(ctx, collection, filter, opts)
	return docs, wrap("query", collection, err)
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]Doc, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]Doc, 0)
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, toDoc(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := primitive.NewObjectID().Hex()
	doc := bson.M{"_id": id}
	for k, v := range data {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", wrap("add", collection, err)
	}
	return id, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, set map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrap("update", collection, err)
	}
	if res.MatchedCount == 0 {
		return wrap("update", collection, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return wrap("increment", collection, err)
	}
	if res.MatchedCount == 0 {
		return wrap("increment", collection, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return wrap("delete", collection, err)
}

// Subscribe opens a change stream on the collection and re-reads the whole
// collection after every event. Change streams need a replica set.
func (s *MongoStore) Subscribe(ctx context.Context, collection string, fn func([]Doc)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := s.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, wrap("subscribe", collection, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stream.Close(context.Background())

		if docs, err := s.All(ctx, collection); err == nil {
			fn(docs)
		}
		for stream.Next(ctx) {
			docs, err := s.All(ctx, collection)
			if err != nil {
				continue
			}
			fn(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func toDoc(raw bson.M) Doc {
	doc := Doc{Data: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "_id" {
			switch id := v.(type) {
			case primitive.ObjectID:
				doc.ID = id.Hex()
			case string:
				doc.ID = id
			}
			continue
		}
		doc.Data[k] = plain(v)
	}
	return doc
}

// plain converts driver specific value types into the plain Go types the
// normalizers understand.
func plain(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time()
	case primitive.Timestamp:
		return primitive.DateTime(int64(val.T) * 1000).Time()
	case primitive.ObjectID:
		return val.Hex()
	case primitive.Decimal128:
		return val.String()
	case primitive.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = plain(inner)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plain(inner)
		}
		return out
	default:
		return v
	}
}
