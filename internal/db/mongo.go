package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Courses       = "courses"
	Categories    = "categories"
	Feedback      = "feedback"
	Blogs         = "blogs"
	Orders        = "orders"
	Notifications = "notifications"
)

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	return client, client.Database(dbName), nil
}

// EnsureIndexes creates single-field indexes only. Reads never depend on a
// compound index, so none is declared here.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	single := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	}

	plan := map[string][]mongo.IndexModel{
		Courses:       {single("category"), single("audience")},
		Categories:    {single("name")},
		Feedback:      {single("status"), single("courseId")},
		Blogs:         {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}, single("status")},
		Orders:        {single("userId"), single("status")},
		Notifications: {single("userId")},
	}

	for name, models := range plan {
		if _, err := database.Collection(name).Indexes().CreateMany(indexTimeout, models); err != nil {
			return err
		}
	}
	return nil
}
