package db

import (
	"context"
	"fmt"

	"github.com/arzan03/codedrop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptionStore persists admin-editable settings in the "options" collection.
type MongoOptionStore struct {
	coll *mongo.Collection
}

func NewOptionStore(database *mongo.Database) *MongoOptionStore {
	return &MongoOptionStore{coll: database.Collection("options")}
}

// All returns every option as a key/value map.
func (s *MongoOptionStore) All(ctx context.Context) (map[string]string, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch options: %w", err)
	}
	defer cursor.Close(ctx)

	var opts []models.Option
	if err := cursor.All(ctx, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}

	data := make(map[string]string, len(opts))
	for _, o := range opts {
		data[o.Key] = o.Value
	}
	return data, nil
}

// Set upserts one option.
func (s *MongoOptionStore) Set(ctx context.Context, key, value string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update option %s: %w", key, err)
	}
	return nil
}
