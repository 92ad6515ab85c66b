package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/arzan03/codedrop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCodeStore persists code records in the "codes" collection.
type MongoCodeStore struct {
	coll *mongo.Collection
}

// NewCodeStore wraps the codes collection and ensures the unique index on
// code. The index is what rejects duplicate inserts when two concurrent
// shares draw the same candidate code.
func NewCodeStore(database *mongo.Database) *MongoCodeStore {
	coll := database.Collection("codes")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "exp_time", Value: 1}},
		},
	})
	if err != nil {
		log.Printf("Warning: failed to create code indexes: %v", err)
	}

	return &MongoCodeStore{coll: coll}
}

// Exists reports whether a live record already uses the code.
func (s *MongoCodeStore) Exists(ctx context.Context, code string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new record. A uniqueness conflict on the code surfaces as
// models.ErrCodeTaken so the caller can retry with a fresh code.
func (s *MongoCodeStore) Insert(ctx context.Context, rec *models.Code) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert code record: %w", err)
	}
	return nil
}

// FindByCode returns the record for a code regardless of its redeemability.
func (s *MongoCodeStore) FindByCode(ctx context.Context, code string) (*models.Code, error) {
	var rec models.Code
	err := s.coll.FindOne(ctx, bson.M{"code": code}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	return &rec, nil
}

// ConsumeUse redeems one use of the record atomically. For count-limited
// records the redeemability check and the decrement happen in a single
// findAndModify, so two redemptions racing for the last use cannot both
// succeed. Unlimited records take no decrement.
func (s *MongoCodeStore) ConsumeUse(ctx context.Context, code string, now time.Time) (*models.Code, error) {
	var rec models.Code

	filter := bson.M{
		"code":     code,
		"exp_time": bson.M{"$gt": now},
		"count":    bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"count": -1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to consume code use: %w", err)
	}

	// Unlimited-use records only need the time check.
	err = s.coll.FindOne(ctx, bson.M{
		"code":     code,
		"exp_time": bson.M{"$gt": now},
		"count":    -1,
	}).Decode(&rec)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}

	// Neither matched: the record is missing or no longer redeemable.
	err = s.coll.FindOne(ctx, bson.M{"code": code}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	return nil, models.ErrCodeExpired
}

// ListExpired returns every record that can no longer be redeemed.
func (s *MongoCodeStore) ListExpired(ctx context.Context, now time.Time) ([]models.Code, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"exp_time": bson.M{"$lte": now}},
		bson.M{"count": 0},
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to list expired records: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []models.Code
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode expired records: %w", err)
	}
	return recs, nil
}

// DeleteByID removes one record. Deleting an already-removed record is not
// an error, which keeps reaper sweeps idempotent.
func (s *MongoCodeStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete code record: %w", err)
	}
	return nil
}

// DeleteByCode removes the record for a pickup code.
func (s *MongoCodeStore) DeleteByCode(ctx context.Context, code string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return fmt.Errorf("failed to delete code record: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrCodeNotFound
	}
	return nil
}

// List returns one page of records plus the total count, newest first.
func (s *MongoCodeStore) List(ctx context.Context, page, size int64) ([]models.Code, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * size).
		SetLimit(size)
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []models.Code
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode records: %w", err)
	}
	return recs, total, nil
}
