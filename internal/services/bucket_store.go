package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

// ProfileEntityID is the entity id under which the profile object is stored.
const ProfileEntityID = "profile"

// BucketStore persists household buckets. Data is the bucket JSON exactly as
// the client stores it locally: an array for recipes and plan, an object for profile.
type BucketStore interface {
	// Load returns the bucket; an unwritten bucket is "[]" (collections) or "null" (profile).
	Load(ctx context.Context, householdID string, bucket models.Bucket) (json.RawMessage, error)
	// Replace makes the stored bucket equal to data.
	Replace(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error
	// Merge upserts the entities of data by id and never deletes.
	Merge(ctx context.Context, householdID string, bucket models.Bucket, data json.RawMessage) error
}

// bucketEntity is one element of a bucket, keyed by its id.
type bucketEntity struct {
	ID       string
	Position int
	Data     json.RawMessage
}

// splitBucket breaks bucket JSON into entities in order.
func splitBucket(bucket models.Bucket, data json.RawMessage) ([]bucketEntity, error) {
	if !bucket.IsCollection() {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: %s must be a JSON object", ErrInvalidBucket, bucket)
		}
		return []bucketEntity{{ID: ProfileEntityID, Data: json.RawMessage(trimmed)}}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s must be a JSON array: %v", ErrInvalidBucket, bucket, err)
	}
	out := make([]bucketEntity, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, raw := range items {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
			return nil, fmt.Errorf("%w: %s item %d has no id", ErrInvalidBucket, bucket, i)
		}
		// A repeated id keeps the first position and the last value.
		if at, dup := seen[head.ID]; dup {
			out[at].Data = raw
			continue
		}
		seen[head.ID] = len(out)
		out = append(out, bucketEntity{ID: head.ID, Position: len(out), Data: raw})
	}
	return out, nil
}

// joinBucket rebuilds bucket JSON from stored entities.
func joinBucket(bucket models.Bucket, entities []bucketEntity) (json.RawMessage, error) {
	if !bucket.IsCollection() {
		for _, e := range entities {
			if e.ID == ProfileEntityID {
				return e.Data, nil
			}
		}
		return json.RawMessage("null"), nil
	}

	sorted := make([]bucketEntity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	items := make([]json.RawMessage, 0, len(sorted))
	for _, e := range sorted {
		items = append(items, e.Data)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to join %s: %w", bucket, err)
	}
	return data, nil
}

// mergeEntities upserts incoming into existing. Existing entities keep their
// position; new ones are appended after the current last position.
func mergeEntities(existing, incoming []bucketEntity) []bucketEntity {
	out := make([]bucketEntity, len(existing))
	copy(out, existing)

	index := make(map[string]int, len(out))
	next := 0
	for i, e := range out {
		index[e.ID] = i
		if e.Position >= next {
			next = e.Position + 1
		}
	}
	for _, e := range incoming {
		if i, ok := index[e.ID]; ok {
			out[i].Data = e.Data
			continue
		}
		e.Position = next
		next++
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
