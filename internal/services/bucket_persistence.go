package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const bucketCollection = "bucket_entities"

// BucketDocument is one bucket entity in MongoDB. Data keeps the entity JSON as
// written by the client so buckets round-trip byte for byte.
type BucketDocument struct {
	HouseholdID string    `bson:"household_id"`
	Bucket      string    `bson:"bucket"`
	EntityID    string    `bson:"entity_id"`
	Position    int       `bson:"position"`
	Data        string    `bson:"data"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// MongoBucketStore keeps one document per entity so merges upsert by id.
type MongoBucketStore struct {
	col *mongo.Collection
}

func NewMongoBucketStore(db *mongo.Database) *MongoBucketStore {
	return &MongoBucketStore{col: db.Collection(bucketCollection)}
}

// EnsureIndexes configures indexes for the bucket_entities collection.
// Called on startup from main after Mongo has connected.
func (s *MongoBucketStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "household_id", Value: 1},
				{Key: "bucket", Value: 1},
				{Key: "entity_id", Value: 1},
			},
			Options: options.Index().SetName("uniq_household_bucket_entity").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "household_id", Value: 1},
				{Key: "bucket", Value: 1},
				{Key: "position", Value: 1},
			},
			Options: options.Index().SetName("idx_household_bucket_position"),
		},
	}
	for _, m := range indexes {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func bucketFilter(householdID string, bucket models.Bucket) bson.M {
	return bson.M{"household_id": householdID, "bucket": string(bucket)}
}

func (s *MongoBucketStore) Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error) {
	cur, err := s.col.Find(ctx, bucketFilter(householdID, bucket),
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", bucket, err)
	}
	defer cur.Close(ctx)

	var entities []bucketEntity
	for cur.Next(ctx) {
		var doc BucketDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s entity: %w", bucket, err)
		}
		entities = append(entities, bucketEntity{ID: doc.EntityID, Position: doc.Position, Data: json.RawMessage(doc.Data)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", bucket, err)
	}
	return joinBucket(bucket, entities)
}

func (s *MongoBucketStore) Replace(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	entities, err := splitBucket(bucket, data)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ids := make([]string, 0, len(entities))
	writes := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
		filter := bucketFilter(householdID, bucket)
		filter["entity_id"] = e.ID
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": bson.M{
				"position":   e.Position,
				"data":       string(e.Data),
				"updated_at": now,
			}}).
			SetUpsert(true))
	}
	if len(writes) > 0 {
		if _, err := s.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("failed to write %s: %w", bucket, err)
		}
	}

	stale := bucketFilter(householdID, bucket)
	stale["entity_id"] = bson.M{"$nin": ids}
	if _, err := s.col.DeleteMany(ctx, stale); err != nil {
		return fmt.Errorf("failed to prune %s: %w", bucket, err)
	}
	return nil
}

func (s *MongoBucketStore) Merge(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error {
	entities, err := splitBucket(bucket, data)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		return nil
	}

	next, err := s.nextPosition(ctx, householdID, bucket)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(entities))
	for i, e := range entities {
		filter := bucketFilter(householdID, bucket)
		filter["entity_id"] = e.ID
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{
				"$set":         bson.M{"data": string(e.Data), "updated_at": now},
				"$setOnInsert": bson.M{"position": next + i},
			}).
			SetUpsert(true))
	}
	if _, err := s.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to merge %s: %w", bucket, err)
	}
	return nil
}

func (s *MongoBucketStore) nextPosition(ctx context.Context, householdID string, bucket models.Bucket) (int, error) {
	var last BucketDocument
	err := s.col.FindOne(ctx, bucketFilter(householdID, bucket),
		options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s positions: %w", bucket, err)
	}
	return last.Position + 1, nil
}
